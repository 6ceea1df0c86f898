package taxonomy

import "github.com/ldi/taskdeck/pkg/models"

const (
	LocaleEN = "en"
	LocaleZH = "zh"
)

// Labels is one locale's wording.
type Labels struct {
	Status  map[models.TaskStatus]string
	Unknown string
	Text    map[string]string
}

var english = Labels{
	Status: map[models.TaskStatus]string{
		models.TaskStatusValidating: "Validating",
		models.TaskStatusFailed:     "Failed",
		models.TaskStatusInProgress: "In progress",
		models.TaskStatusFinalizing: "Finalizing",
		models.TaskStatusCompleted:  "Completed",
		models.TaskStatusExpiring:   "Expiring",
		models.TaskStatusExpired:    "Expired",
		models.TaskStatusCancelling: "Cancelling",
		models.TaskStatusCancelled:  "Cancelled",
	},
	Unknown: "Unknown status",
	Text: map[string]string{
		"tasks.empty":       "No tasks yet",
		"tasks.load_failed": "Failed to load task list",
		"batches.empty":     "No batches match the filter",
		"files.empty":       "No files",
		"no_content":        "(no content)",
		"result_available":  "result available",
		"confirm.cancel":    "Cancel this task?",
		"confirm.delete":    "Delete this task?",
		"confirm.del_batch": "Delete this batch?",
		"confirm.del_file":  "Delete this file?",
	},
}

var chinese = Labels{
	Status: map[models.TaskStatus]string{
		models.TaskStatusValidating: "验证中",
		models.TaskStatusFailed:     "失败",
		models.TaskStatusInProgress: "处理中",
		models.TaskStatusFinalizing: "完成中",
		models.TaskStatusCompleted:  "已完成",
		models.TaskStatusExpiring:   "即将过期",
		models.TaskStatusExpired:    "已过期",
		models.TaskStatusCancelling: "取消中",
		models.TaskStatusCancelled:  "已取消",
	},
	Unknown: "未知状态",
	Text: map[string]string{
		"tasks.empty":       "暂无任务",
		"tasks.load_failed": "加载任务列表失败",
		"batches.empty":     "没有符合条件的批处理",
		"files.empty":       "暂无文件",
		"no_content":        "无内容",
		"result_available":  "可查看",
		"confirm.cancel":    "确定要取消此任务吗？",
		"confirm.delete":    "确定要删除此任务吗？",
		"confirm.del_batch": "确定要删除此批处理吗？",
		"confirm.del_file":  "确定要删除此文件吗？",
	},
}

// LabelsFor returns the wording for locale; unknown locales get English.
func LabelsFor(locale string) Labels {
	if locale == LocaleZH {
		return chinese
	}
	return english
}
