package telegram

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"DomainChecker/domain"
)

func (h *CommandHandler) handleCSVCommand(args []string) {
	if h.Repo == nil {
		h.sendText("结果存储未启用。")
		return
	}

	var filter domain.Filter
	if len(args) > 0 {
		status, ok := domain.ParseStatus(args[0])
		if !ok {
			h.sendText("用法: /csv [available|taken|error]")
			return
		}
		filter.Status = status
	}

	ctx, cancel := h.commandContext()
	defer cancel()

	results, err := h.Repo.Query(ctx, filter)
	if err != nil {
		h.sendText(fmt.Sprintf("导出失败: %v", err))
		return
	}
	if len(results) == 0 {
		h.sendText("没有可导出的记录。")
		return
	}

	path, err := writeExportFile(results, time.Now())
	if err != nil {
		h.sendText(fmt.Sprintf("生成导出文件失败: %v", err))
		return
	}
	defer func() { _ = os.RemoveAll(filepath.Dir(path)) }()

	if err := h.Sender.SendDocumentPath(ctx, path, "📦 域名检查结果导出"); err != nil {
		h.sendText(fmt.Sprintf("发送导出文件失败: %v", err))
		return
	}
	h.sendText(fmt.Sprintf("✅ 导出完成：%d 条记录", len(results)))
}

// writeExportFile 写到临时目录下的 domain-check-YYYY-MM-DD.csv，调用方负责删除。
func writeExportFile(results []domain.CheckResult, now time.Time) (string, error) {
	dir, err := os.MkdirTemp("", "domain-export-")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("domain-check-%s.csv", now.Format("2006-01-02")))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := domain.WriteCSV(f, results); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
