package article

import "testing"

func TestContentJoinsTitleAndDescription(t *testing.T) {
	t.Parallel()

	a := Article{Title: "Headline", Description: "Body text."}
	if got := a.Content(); got != "Headline Body text." {
		t.Fatalf("Content() = %q", got)
	}

	titleOnly := Article{Title: "Headline"}
	if got := titleOnly.Content(); got != "Headline" {
		t.Fatalf("Content() without description = %q", got)
	}
}

func TestGroupBySourceSanitizesLabels(t *testing.T) {
	t.Parallel()

	batch := []Article{
		{Title: "A", Source: "News API"},
		{Title: "B", Source: "news api"},
		{Title: "C", Source: "NEWSAPI"},
		{Title: "D", Source: ""},
	}
	groups := GroupBySource(batch)

	if len(groups["news_api"]) != 2 {
		t.Fatalf("expected casing and spacing variants grouped together, got %v", groups)
	}
	if len(groups["newsapi"]) != 1 {
		t.Fatalf("expected distinct label kept separate, got %v", groups)
	}
	if len(groups["unknown"]) != 1 {
		t.Fatalf("expected empty source grouped as unknown, got %v", groups)
	}
}

func TestGroupBySourceKeepsBatchOrder(t *testing.T) {
	t.Parallel()

	batch := []Article{
		{Title: "First", Source: "wire"},
		{Title: "Second", Source: "wire"},
	}
	group := GroupBySource(batch)["wire"]
	if len(group) != 2 || group[0].Title != "First" || group[1].Title != "Second" {
		t.Fatalf("expected batch order preserved, got %v", group)
	}
}
