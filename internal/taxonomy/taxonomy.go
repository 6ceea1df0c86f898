// Package taxonomy maps raw task and batch status strings onto display labels,
// severity classes and the action sets a status admits.
package taxonomy

import "github.com/ldi/taskdeck/pkg/models"

// Class is the visual severity of a status badge.
type Class string

const (
	ClassWarning Class = "warning"
	ClassDanger  Class = "danger"
	ClassInfo    Class = "info"
	ClassSuccess Class = "success"
	ClassCaution Class = "caution"
	ClassMuted   Class = "muted"
)

type entry struct {
	class       Class
	cancellable bool
	deletable   bool
	terminal    bool
}

// table is the single source for every derived set below.
var table = map[models.TaskStatus]entry{
	models.TaskStatusValidating: {class: ClassWarning, cancellable: true},
	models.TaskStatusInProgress: {class: ClassInfo, cancellable: true},
	models.TaskStatusFinalizing: {class: ClassInfo, cancellable: true},
	models.TaskStatusCompleted:  {class: ClassSuccess, deletable: true, terminal: true},
	models.TaskStatusFailed:     {class: ClassDanger, terminal: true},
	models.TaskStatusExpiring:   {class: ClassCaution},
	models.TaskStatusExpired:    {class: ClassMuted, deletable: true, terminal: true},
	models.TaskStatusCancelling: {class: ClassWarning, deletable: true},
	models.TaskStatusCancelled:  {class: ClassMuted, deletable: true, terminal: true},
}

// Info is everything the views need to know about one status string.
type Info struct {
	Status      models.TaskStatus
	Label       string
	Class       Class
	Known       bool
	Cancellable bool
	Deletable   bool
	Terminal    bool
}

// Taxonomy describes statuses in one locale.
type Taxonomy struct {
	labels Labels
}

// New returns a Taxonomy for locale, falling back to English.
func New(locale string) *Taxonomy {
	return &Taxonomy{labels: LabelsFor(locale)}
}

// Default is the English taxonomy.
var Default = New(LocaleEN)

// Describe is total over all strings; unknown values get the unknown label
// and belong to no action set.
func (t *Taxonomy) Describe(raw string) Info {
	status := models.TaskStatus(raw)
	e, ok := table[status]
	if !ok {
		return Info{
			Status: status,
			Label:  t.labels.Unknown,
			Class:  ClassMuted,
		}
	}
	return Info{
		Status:      status,
		Label:       t.labels.Status[status],
		Class:       e.class,
		Known:       true,
		Cancellable: e.cancellable,
		Deletable:   e.deletable,
		Terminal:    e.terminal,
	}
}

// Label implements the labeler used by the batch aggregator.
func (t *Taxonomy) Label(raw string) string {
	return t.Describe(raw).Label
}

// Text returns a locale string by key, for view chrome.
func (t *Taxonomy) Text(key string) string {
	if s, ok := t.labels.Text[key]; ok {
		return s
	}
	return key
}

func IsCancellable(s models.TaskStatus) bool { return table[s].cancellable }

func IsDeletable(s models.TaskStatus) bool { return table[s].deletable }

func IsTerminal(s models.TaskStatus) bool { return table[s].terminal }

// Cancellable returns the cancellable set in lifecycle order.
func Cancellable() []models.TaskStatus { return collect(IsCancellable) }

// Deletable returns the deletable set in lifecycle order.
func Deletable() []models.TaskStatus { return collect(IsDeletable) }

// Terminal returns the statuses from which no transition occurs.
func Terminal() []models.TaskStatus { return collect(IsTerminal) }

func collect(pred func(models.TaskStatus) bool) []models.TaskStatus {
	var out []models.TaskStatus
	for _, s := range models.TaskStatuses {
		if pred(s) {
			out = append(out, s)
		}
	}
	return out
}
