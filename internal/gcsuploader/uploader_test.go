package gcsuploader

import (
	"testing"
	"time"
)

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{uri: "gs://ledger-backups/backups/alice/mahjong.txt", wantBucket: "ledger-backups", wantObject: "backups/alice/mahjong.txt"},
		{uri: "gs://bucket/file.txt", wantBucket: "bucket", wantObject: "file.txt"},
		{uri: "gs://bucket", wantErr: true},
		{uri: "gs://bucket/", wantErr: true},
		{uri: "/tmp/backup.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("got (%q, %q)", bucket, object)
			}
		})
	}
}

func TestExtractFilenameFromGCSURI(t *testing.T) {
	if got := ExtractFilenameFromGCSURI("gs://bucket/backups/alice/mahjong.txt"); got != "mahjong.txt" {
		t.Errorf("got %q", got)
	}
	if got := ExtractFilenameFromGCSURI("gs://bucket"); got != "bucket" {
		t.Errorf("got %q", got)
	}
}

func TestBackupURI(t *testing.T) {
	now := time.Date(2024, 2, 6, 21, 30, 0, 0, time.UTC)
	want := "gs://ledger/backups/alice/mahjong-20240206-213000.txt"
	if got := BackupURI("ledger", "alice", now); got != want {
		t.Errorf("BackupURI = %q, want %q", got, want)
	}
	if !IsGCSURI(want) {
		t.Error("IsGCSURI = false")
	}
}
