package importreport

import (
	"fmt"
	"sync"
	"testing"
)

func TestReportCountsInsertedAndSkipped(t *testing.T) {
	aggregator := NewAggregator()
	aggregator.Begin("import-1")

	for i := 0; i < 3; i++ {
		aggregator.RecordInserted(Sample{Text: "ERR"})
	}
	aggregator.RecordSkipped(Sample{})
	aggregator.RecordSkipped(Sample{})

	report := aggregator.Report()

	if report.ImportID != "import-1" {
		t.Error("Wrong import id:", report.ImportID)
	}
	if report.InsertedCount != 3 {
		t.Error("Wrong inserted count:", report.InsertedCount)
	}
	if report.SkippedCount != 2 {
		t.Error("Wrong skipped count:", report.SkippedCount)
	}
	if report.Problems["ERR"] != 3 {
		t.Error("Wrong frequency for ERR:", report.Problems["ERR"])
	}
	if report.ProblemCount() != 3 {
		t.Error("Wrong problem count:", report.ProblemCount())
	}
}

func TestEmptyTextIsNotCounted(t *testing.T) {
	aggregator := NewAggregator()
	aggregator.Begin("import-2")

	aggregator.RecordInserted(Sample{Value: 17.2})

	report := aggregator.Report()
	if len(report.Problems) != 0 {
		t.Error("No text values were observed, problems should be empty")
	}
	if report.ProblemCount() != 0 {
		t.Error("Wrong problem count:", report.ProblemCount())
	}
}

func TestReportIsASnapshot(t *testing.T) {
	aggregator := NewAggregator()
	aggregator.Begin("import-3")

	aggregator.RecordInserted(Sample{Text: "low battery"})
	first := aggregator.Report()

	aggregator.RecordInserted(Sample{Text: "low battery"})
	second := aggregator.Report()

	if first.Problems["low battery"] != 1 {
		t.Error("Earlier snapshot was mutated:", first.Problems["low battery"])
	}
	if second.Problems["low battery"] != 2 {
		t.Error("Later snapshot is missing updates:", second.Problems["low battery"])
	}
}

func TestErrorChainIsTruncated(t *testing.T) {
	err := fmt.Errorf("link 20")
	for i := 19; i > 0; i-- {
		err = fmt.Errorf("link %d: %w", i, err)
	}

	aggregator := NewAggregator()
	aggregator.Begin("import-4")
	aggregator.RecordError(err)

	report := aggregator.Report()
	if len(report.ErrorChain) != MaxErrorChainLength {
		t.Error("Wrong error chain length:", len(report.ErrorChain))
	}
}

func TestNoErrorMeansNoChain(t *testing.T) {
	aggregator := NewAggregator()
	aggregator.Begin("import-5")

	report := aggregator.Report()
	if report.ErrorChain != nil {
		t.Error("Error chain should be absent when no error was recorded")
	}
}

func TestConcurrentRecordingLosesNoUpdates(t *testing.T) {
	aggregator := NewAggregator()
	aggregator.Begin("import-6")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				aggregator.RecordInserted(Sample{Text: "ERR"})
			}
		}()
	}
	wg.Wait()

	report := aggregator.Report()
	if report.InsertedCount != 1000 {
		t.Error("Lost updates, inserted count:", report.InsertedCount)
	}
	if report.Problems["ERR"] != 1000 {
		t.Error("Lost updates, frequency:", report.Problems["ERR"])
	}
}
