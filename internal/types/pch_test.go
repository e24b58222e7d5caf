package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPCHInfoJSONRoundTrip(t *testing.T) {
	want := PCHInfo{
		OutputPath:         "/tmp/main.pch",
		Mtime:              time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		PreambleBytePrefix: []byte("#include <a.h>\n"),
		PreambleHash:       0xdeadbeef,
		DepFiles:           []string{"a.h", "b.h"},
		ArgumentVector:     []string{"-std=c++20", "-Iinclude"},
	}

	data, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got PCHInfo
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Mtime.Equal(want.Mtime) || got.OutputPath != want.OutputPath ||
		got.PreambleHash != want.PreambleHash || len(got.DepFiles) != len(want.DepFiles) ||
		len(got.ArgumentVector) != len(want.ArgumentVector) || string(got.PreambleBytePrefix) != string(want.PreambleBytePrefix) {
		t.Fatalf("round trip not exact: got %+v want %+v", got, want)
	}
}
