package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	KIND_BROKEN ReportKind = iota
	KIND_WARNING
	KIND_DEBUG
	KIND_COUNT
)

// Report is a single call made against MemoryAPI.
type Report struct {
	Kind   ReportKind
	Id     string
	Params []any
	Count  int64
}

// MemoryAPI keeps every report in memory so tests can assert on them.
type MemoryAPI struct {
	lock    sync.Mutex
	reports []Report
}

func NewMemoryAPI() *MemoryAPI {
	return &MemoryAPI{}
}

func (m *MemoryAPI) push(r Report) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.reports = append(m.reports, r)
}

func (m *MemoryAPI) ReportBroken(id string, params ...any) {
	m.push(Report{Kind: KIND_BROKEN, Id: id, Params: params})
}

func (m *MemoryAPI) ReportWarning(id string, params ...any) {
	m.push(Report{Kind: KIND_WARNING, Id: id, Params: params})
}

func (m *MemoryAPI) ReportDebug(msg string, params ...any) {
	m.push(Report{Kind: KIND_DEBUG, Id: msg, Params: params})
}

func (m *MemoryAPI) ReportCount(id string, count int64) {
	m.push(Report{Kind: KIND_COUNT, Id: id, Count: count})
}

// Reports returns a copy of every report of the given kind whose id contains `substr`.
func (m *MemoryAPI) Reports(kind ReportKind, substr string) []Report {
	m.lock.Lock()
	defer m.lock.Unlock()

	var out []Report
	for _, r := range m.reports {
		if r.Kind == kind && strings.Contains(r.Id, substr) {
			out = append(out, r)
		}
	}
	return out
}
