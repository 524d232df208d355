package importreport

import (
	"errors"
	"sync"
	"time"
)

//MaxErrorChainLength bounds the number of cause links included in a report.
//Deeper chains are truncated silently.
const MaxErrorChainLength = 15

//Sample is one observation handled by a bulk import run
type Sample struct {
	Timestamp time.Time
	Value     float64
	Text      string
}

//Report is a read-only snapshot of the state of an import run
type Report struct {
	ImportID      string
	InsertedCount int
	SkippedCount  int
	Problems      map[string]int
	ErrorChain    []string
}

//ProblemCount returns the total number of observations that carried a text
//value, summed over all distinct texts
func (r *Report) ProblemCount() int {
	count := 0
	for _, n := range r.Problems {
		count += n
	}
	return count
}

//Aggregator accumulates counters and diagnostic state for one bulk import
//run. An aggregator is scoped to a single run; mutations are serialized so a
//concurrent driver cannot lose updates.
type Aggregator struct {
	mu           sync.Mutex
	importID     string
	inserted     int
	skipped      int
	observedText map[string]int
	err          error
}

//NewAggregator returns an aggregator with zeroed counters and no error
func NewAggregator() *Aggregator {
	return &Aggregator{
		observedText: map[string]int{},
	}
}

//Begin sets the identifier of the import run
func (a *Aggregator) Begin(importID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.importID = importID
}

//RecordInserted counts an inserted observation. Observations carrying a non
//empty text value are also accumulated in the text frequency mapping.
func (a *Aggregator) RecordInserted(observation Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.inserted++

	if observation.Text != "" {
		a.observedText[observation.Text]++
	}
}

//RecordSkipped counts a skipped observation
func (a *Aggregator) RecordSkipped(observation Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.skipped++
}

//RecordError stores a terminal error for the report. Recording an error does
//not stop further counter updates.
func (a *Aggregator) RecordError(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.err = err
}

//Report snapshots the current state of the run. It may be called at any
//point and leaves the aggregator unchanged.
func (a *Aggregator) Report() Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	problems := make(map[string]int, len(a.observedText))
	for text, count := range a.observedText {
		problems[text] = count
	}

	return Report{
		ImportID:      a.importID,
		InsertedCount: a.inserted,
		SkippedCount:  a.skipped,
		Problems:      problems,
		ErrorChain:    flattenErrorChain(a.err),
	}
}

//flattenErrorChain walks the cause chain of err and collects one message per
//link, at most MaxErrorChainLength links deep
func flattenErrorChain(err error) []string {
	if err == nil {
		return nil
	}

	chain := []string{}
	for err != nil && len(chain) < MaxErrorChainLength {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}

	return chain
}
