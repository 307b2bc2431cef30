package testhelpers

import (
	"os"
	"sync/atomic"
	"testing"
	"time"
)

func TestAssertJSONEqual_Success(t *testing.T) {
	mockT := &testing.T{}
	AssertJSONEqual(mockT, `{"incident_id": 1, "status": "open"}`, `{"status":"open","incident_id":1}`, "JSON should be equal")

	if mockT.Failed() {
		t.Error("AssertJSONEqual should not have failed for equivalent JSON")
	}
}

func TestAssertJSONKeyValue_Success(t *testing.T) {
	mockT := &testing.T{}
	AssertJSONKeyValue(mockT, `{"incident_id": 3, "status": "open"}`, "incident_id", 3, "id should match")

	if mockT.Failed() {
		t.Error("AssertJSONKeyValue should not have failed")
	}
}

func TestWriteTestFile_Nested(t *testing.T) {
	path := WriteTestFile(t, t.TempDir(), "rules/custom.yaml", "rules: []\n")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	if string(data) != "rules: []\n" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestConcurrentTestWithTimeout_Success(t *testing.T) {
	var counter int64

	ConcurrentTestWithTimeout(t, time.Second, 5, func(workerID int) {
		atomic.AddInt64(&counter, 1)
	})

	if counter != 5 {
		t.Errorf("expected counter 5, got %d", counter)
	}
}
