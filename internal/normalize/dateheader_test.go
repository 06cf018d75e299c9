package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fieldline-io/plansync/pkg/types"
)

func TestSplitSegments(t *testing.T) {
	cell := "21 Jan\nfirst update\n\n  \n3 Feb\nsecond update\n\n"
	got := SplitSegments(cell)
	assert.Equal(t, []string{"21 Jan\nfirst update", "3 Feb\nsecond update"}, got)

	assert.Nil(t, SplitSegments("   \n \n"))
}

func TestDateHeader(t *testing.T) {
	tests := []struct {
		name     string
		segment  string
		wantDate types.Date
		wantBody string
	}{
		{
			name:     "header line consumed",
			segment:  "21 Jan\nDiscussed scope with the working team.",
			wantDate: types.NewDate(2025, time.January, 21),
			wantBody: "Discussed scope with the working team.",
		},
		{
			name:     "full month name",
			segment:  "3 February – call with leads\nAgreed next steps.",
			wantDate: types.NewDate(2025, time.February, 3),
			wantBody: "Agreed next steps.",
		},
		{
			name:     "date mid-text keeps whole segment as body",
			segment:  "Submission expected\nby 15 Mar at the latest.",
			wantDate: types.NewDate(2025, time.March, 15),
			wantBody: "Submission expected\nby 15 Mar at the latest.",
		},
		{
			name:     "no token: absent date, full body",
			segment:  "General remark without any date.",
			wantBody: "General remark without any date.",
		},
		{
			name:     "unknown month name skipped",
			segment:  "42 Foobar\nstill no date here.",
			wantBody: "42 Foobar\nstill no date here.",
		},
		{
			name:     "impossible day rejected",
			segment:  "31 Feb\nnot a real date.",
			wantBody: "31 Feb\nnot a real date.",
		},
		{name: "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotDate, gotBody := DateHeader(tt.segment, 2025)
			assert.Equal(t, tt.wantDate.Valid, gotDate.Valid)
			if tt.wantDate.Valid {
				assert.Equal(t, tt.wantDate.String(), gotDate.String())
			}
			assert.Equal(t, tt.wantBody, gotBody)
		})
	}
}
