package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cuemby/arachne/pkg/crawlurl"
	"github.com/cuemby/arachne/pkg/task"
)

// taskRecordVersion is bumped whenever a field is removed or its
// meaning changes; new optional fields can be added without a bump
// since encoding/json ignores unknown fields on decode.
const taskRecordVersion = 1

// taskRecord is the on-disk, versioned, language-neutral serialization
// of a Task.
type taskRecord struct {
	Version      int    `json:"version"`
	SiteID       string `json:"site_id"`
	URL          string `json:"url_string"`
	IsRoot       bool   `json:"is_root_flag"`
	RevisitWait  int64  `json:"revisit_wait"`
	RevisitCount int    `json:"revisit_count"`
	ChangeCount  int    `json:"change_count"`
}

func encodeTask(t *task.Task) ([]byte, error) {
	rec := taskRecord{
		Version:      taskRecordVersion,
		SiteID:       t.SiteID,
		URL:          t.URL.String(),
		IsRoot:       t.URL.IsRoot,
		RevisitWait:  int64(t.RevisitWait / time.Second),
		RevisitCount: t.RevisitCount,
		ChangeCount:  t.ChangeCount,
	}
	return json.Marshal(rec)
}

func decodeTask(data []byte) (*task.Task, error) {
	var rec taskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("scheduler: decode task: %w", err)
	}
	u, err := crawlurl.Parse(rec.URL, rec.IsRoot)
	if err != nil {
		return nil, fmt.Errorf("scheduler: decode task: %w", err)
	}
	return &task.Task{
		SiteID:       rec.SiteID,
		URL:          u,
		RevisitWait:  time.Duration(rec.RevisitWait) * time.Second,
		RevisitCount: rec.RevisitCount,
		ChangeCount:  rec.ChangeCount,
	}, nil
}
