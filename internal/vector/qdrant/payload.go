package qdrant

import (
	"time"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/prismdev/prism/internal/pr"
)

// Payload keys mirror the record's json field names so repo filtering and
// external inspection see stable names.
const (
	keyID          = "id"
	keyRepoName    = "repo_name"
	keyTitle       = "title"
	keyBody        = "body"
	keyState       = "state"
	keyCreatedAt   = "created_at"
	keyUpdatedAt   = "updated_at"
	keyAuthor      = "author"
	keyLabels      = "labels"
	keyComments    = "comments"
	keyProcessedAt = "processed_at"
)

func payloadFromRecord(rec pr.PullRequest) map[string]*pb.Value {
	return map[string]*pb.Value{
		keyID:          intValue(rec.ID),
		keyRepoName:    stringValue(rec.RepoName),
		keyTitle:       stringValue(rec.Title),
		keyBody:        stringValue(rec.Body),
		keyState:       stringValue(string(rec.State)),
		keyCreatedAt:   timeValue(rec.CreatedAt),
		keyUpdatedAt:   timeValue(rec.UpdatedAt),
		keyAuthor:      stringValue(rec.Author),
		keyLabels:      listValue(rec.Labels),
		keyComments:    listValue(rec.Comments),
		keyProcessedAt: timeValue(rec.ProcessedAt),
	}
}

func recordFromPayload(payload map[string]*pb.Value) pr.PullRequest {
	return pr.PullRequest{
		ID:          payload[keyID].GetIntegerValue(),
		RepoName:    payload[keyRepoName].GetStringValue(),
		Title:       payload[keyTitle].GetStringValue(),
		Body:        payload[keyBody].GetStringValue(),
		State:       pr.State(payload[keyState].GetStringValue()),
		CreatedAt:   parseTime(payload[keyCreatedAt].GetStringValue()),
		UpdatedAt:   parseTime(payload[keyUpdatedAt].GetStringValue()),
		Author:      payload[keyAuthor].GetStringValue(),
		Labels:      stringList(payload[keyLabels]),
		Comments:    stringList(payload[keyComments]),
		ProcessedAt: parseTime(payload[keyProcessedAt].GetStringValue()),
	}
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func intValue(i int64) *pb.Value {
	return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: i}}
}

func timeValue(t time.Time) *pb.Value {
	if t.IsZero() {
		return stringValue("")
	}
	return stringValue(t.UTC().Format(time.RFC3339Nano))
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func listValue(items []string) *pb.Value {
	values := make([]*pb.Value, len(items))
	for i, item := range items {
		values[i] = stringValue(item)
	}
	return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
}

func stringList(v *pb.Value) []string {
	list := v.GetListValue()
	if list == nil {
		return []string{}
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, item := range list.GetValues() {
		out = append(out, item.GetStringValue())
	}
	return out
}
