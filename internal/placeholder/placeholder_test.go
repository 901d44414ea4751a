package placeholder

import (
	"testing"
	"time"

	"github.com/maildue/maildue/internal/engine"
	"github.com/maildue/maildue/internal/schedule"
)

var march15 = time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)

func TestRender_EnglishTokens(t *testing.T) {
	rctx := Context{Department: "Finance", UserName: "Alice"}

	tests := []struct {
		template string
		want     string
	}{
		{"{{year}}-{{month_name}}", "2024-March"},
		{"{{date}}", "2024-03-15"},
		{"{{day_name}}", "Friday"},
		{"{{week_number}}", "11"},
		{"{{week_of_month}}", "3"},
		{"{{week_of_month_ordinal}}", "third"},
		{"{{department}}", "Finance"},
		{"{{user_name}}", "Alice"},
		{"Report for {{month_name}} {{year}}", "Report for March 2024"},
	}

	for _, tt := range tests {
		if got := Render(tt.template, march15, "en", rctx); got != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestRender_UnknownTokenPassesThrough(t *testing.T) {
	got := Render("{{bogus}} and {{year}}", march15, "en", Context{})
	want := "{{bogus}} and 2024"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRender_ArabicVariants(t *testing.T) {
	rctx := Context{}

	tests := []struct {
		template string
		want     string
	}{
		{"{{year_ar}}", "٢٠٢٤"},
		{"{{date_ar}}", "٢٠٢٤-٠٣-١٥"},
		{"{{month_name_ar}}", "مارس"},
		{"{{day_name_ar}}", "الجمعة"},
		{"{{week_of_month_ordinal_ar}}", "الثالث"},
	}

	for _, tt := range tests {
		// _ar tokens are Arabic regardless of the render language.
		if got := Render(tt.template, march15, "en", rctx); got != tt.want {
			t.Errorf("Render(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestRender_ArabicLanguageLocalizesBaseTokens(t *testing.T) {
	got := Render("{{month_name}}", march15, "ar", Context{})
	if got != "مارس" {
		t.Errorf("Render(month_name, ar) = %q, want مارس", got)
	}

	got = Render("{{year}}", march15, "ar", Context{})
	if got != "٢٠٢٤" {
		t.Errorf("Render(year, ar) = %q, want ٢٠٢٤", got)
	}
}

func TestWeekOfMonth(t *testing.T) {
	tests := []struct {
		day  int
		want int
	}{
		{1, 1}, {7, 1}, {8, 2}, {14, 2}, {15, 3}, {21, 3}, {22, 4}, {28, 4}, {29, 5}, {31, 5},
	}

	for _, tt := range tests {
		date := time.Date(2024, 3, tt.day, 0, 0, 0, 0, time.Local)
		if got := weekOfMonth(date); got != tt.want {
			t.Errorf("weekOfMonth(day %d) = %d, want %d", tt.day, got, tt.want)
		}
	}
}

func TestBuildMessage(t *testing.T) {
	sched := &schedule.EmailSchedule{
		To:       "a@example.com, b@example.com",
		CC:       "c@example.com",
		Subject:  "Digest {{date}}",
		Body:     "<p>{{month_name}} {{year}}</p>",
		Language: "en",
	}

	inst := &engine.ScheduleInstance{
		ScheduledDate: "2024-03-15",
		ScheduledTime: "09:00",
	}

	msg, err := BuildMessage(sched, inst, Context{})
	if err != nil {
		t.Fatalf("BuildMessage() error = %v", err)
	}

	if len(msg.To) != 2 {
		t.Errorf("To = %v, want 2 recipients", msg.To)
	}
	if len(msg.CC) != 1 {
		t.Errorf("CC = %v, want 1 recipient", msg.CC)
	}
	if msg.Subject != "Digest 2024-03-15" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.Body != "<p>March 2024</p>" {
		t.Errorf("Body = %q", msg.Body)
	}
}
