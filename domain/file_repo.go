package domain

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// WatchEntry 清单文件中的一行：name|tld1,tld2
type WatchEntry struct {
	Name   string
	TLDs   []string
	Source string
}

// FileRepository 基于文件的巡检清单实现。
type FileRepository struct {
	sourcesPaths    []string
	availableTarget string
}

func NewFileRepository(sources []string, availablePath string) *FileRepository {
	return &FileRepository{sourcesPaths: sources, availableTarget: availablePath}
}

// LoadWatchlist 读取配置的清单文件，每行一个名字，忽略空行和注释。
func (r *FileRepository) LoadWatchlist() ([]WatchEntry, error) {
	var out []WatchEntry
	for _, path := range r.sourcesPaths {
		entries, err := readWatchFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	return out, nil
}

func readWatchFile(path string) ([]WatchEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开清单文件 %s: %w", path, err)
	}
	defer file.Close()

	var out []WatchEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}

		var tlds []string
		if len(parts) == 2 {
			tlds = NormalizeTLDs(strings.Split(parts[1], ","))
		}
		out = append(out, WatchEntry{Name: name, TLDs: tlds, Source: path})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取清单文件 %s 出错: %w", path, err)
	}
	return out, nil
}

// SaveAvailable 覆盖写可注册域名列表：domain|checked_at
func (r *FileRepository) SaveAvailable(results []CheckResult) error {
	if r.availableTarget == "" {
		return nil
	}
	file, err := os.Create(r.availableTarget)
	if err != nil {
		return fmt.Errorf("创建可注册列表文件失败: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, res := range results {
		if res.Status != StatusAvailable {
			continue
		}
		if _, err := fmt.Fprintf(writer, "%s|%s\n", res.Domain, res.CheckedAt.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("写入可注册列表失败: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("刷新可注册列表失败: %w", err)
	}
	return nil
}
