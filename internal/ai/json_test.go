package ai

import "testing"

func TestDecodeModelJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantJobs int
		wantErr  bool
	}{
		{
			name:     "bare object",
			response: `{"jobs": [{"title": "Dev"}], "next_page_url": null}`,
			wantJobs: 1,
		},
		{
			name:     "fenced with language tag",
			response: "```json\n{\"jobs\": [{\"title\": \"Dev\"}]}\n```",
			wantJobs: 1,
		},
		{
			name:     "fenced without language tag",
			response: "```\n{\"jobs\": [{\"title\": \"Dev\"}]}\n```",
			wantJobs: 1,
		},
		{
			name:     "object embedded in prose",
			response: `Sure, here is the result: {"jobs": [{"title": "Dev"}, {"title": "Ops"}]} Hope that helps!`,
			wantJobs: 2,
		},
		{
			name:     "nested braces inside prose",
			response: `Result: {"jobs": [{"title": "Dev {Senior}"}]} done`,
			wantJobs: 1,
		},
		{
			name:     "plain prose",
			response: "I could not find any job listings on this page.",
			wantErr:  true,
		},
		{
			name:     "empty",
			response: "   ",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload extractionPayload
			err := decodeModelJSON(tt.response, &payload)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(payload.Jobs) != tt.wantJobs {
				t.Errorf("got %d jobs, want %d", len(payload.Jobs), tt.wantJobs)
			}
		})
	}
}

func TestDecodeModelJSON_Array(t *testing.T) {
	var titles []string
	err := decodeModelJSON("Here you go:\n```json\n[\"Developer\", \"Manager\"]\n```", &titles)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(titles) != 2 || titles[0] != "Developer" {
		t.Errorf("got %v", titles)
	}
}
