package api

import (
	"DomainChecker/internal/app"

	"github.com/gin-gonic/gin"
)

// streamRun 推送 start、逐条 result、complete 三类事件。
// result 事件带 persisted，落库失败的结果照常推送但 persisted 为 false。
// 客户端断开后停止推送；批次是否继续由请求 ctx 决定。
func streamRun(c *gin.Context, run *app.Run) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	rejected := run.Rejected
	if rejected == nil {
		rejected = []string{}
	}
	c.SSEvent("start", gin.H{"batch_id": run.ID, "total": run.Total(), "rejected": rejected})
	c.Writer.Flush()

	progress := 0
	results := run.Results()
	done := c.Request.Context().Done()
	for {
		select {
		case res, ok := <-results:
			if !ok {
				c.SSEvent("complete", gin.H{"batch_id": run.ID, "total": progress})
				c.Writer.Flush()
				return
			}
			progress++
			payload := gin.H{"result": res, "persisted": res.Persisted, "progress": progress, "total": run.Total()}
			if res.Err != nil {
				payload["error"] = res.Err.Error()
			}
			c.SSEvent("result", payload)
			c.Writer.Flush()
		case <-done:
			return
		}
	}
}
