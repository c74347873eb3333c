package cli

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	l10n.Register("zh", l10n.LexiconMap{
		"Zero samples, exiting":                     "样本数量为0，退出",
		"Done, output file: %s":                     "处理完成，输出文件：%s",
		"Done, output dir: %s":                      "处理完成，输出目录：%s",
		"%d of %d segments failed and were skipped": "%d/%d 个片段处理失败，已跳过",
		"Split into %d parts in %s":                 "已切分为 %d 个片段，目录：%s",
		"Merged %d files into %s":                   "已合并 %d 个文件：%s",
		"Interrupted, shutting down...":             "已中断，正在退出...",
		"Frame rate: %.3f":                          "帧率：%.3f",
		"Frames: %d":                                "总帧数：%d",
		"Duration: %s":                              "时长：%s",
	})
}
