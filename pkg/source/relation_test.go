package source_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-selectfield/pkg/option"
	"github.com/goliatone/go-selectfield/pkg/source"
	"github.com/goliatone/go-selectfield/pkg/store"
)

func authorStore() *store.Memory {
	return store.NewMemory(
		store.Record{Key: "1", Columns: map[string]string{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"}},
		store.Record{Key: "2", Columns: map[string]string{"first_name": "Alan", "last_name": "Turing", "email": "alan@example.com"}},
		store.Record{Key: "3", Columns: map[string]string{"first_name": "Grace", "last_name": "Hopper", "email": "grace@example.com"}},
	)
}

func TestRelation_SearchAcrossColumns(t *testing.T) {
	rel, err := source.NewRelation(authorStore(), "first_name",
		source.WithSearchColumns("first_name", "last_name"),
		source.WithTitleColumns("last_name"),
	)
	if err != nil {
		t.Fatalf("new relation: %v", err)
	}

	// "lov" only matches a last name; the OR-combined filter still finds it.
	got, err := rel.Search(context.Background(), "lov", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []option.Entry{{Key: "1", Label: "Ada Lovelace"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	got, err = rel.Search(context.Background(), "alan", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want = []option.Entry{{Key: "2", Label: "Alan Turing"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
}

func TestRelation_CustomRecordLabel(t *testing.T) {
	rel, err := source.NewRelation(authorStore(), "first_name",
		source.WithRecordLabel(func(record store.Record) string {
			return record.Column("last_name") + " <" + record.Column("email") + ">"
		}),
	)
	if err != nil {
		t.Fatalf("new relation: %v", err)
	}

	label, err := rel.ResolveLabel(context.Background(), "3")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if label != "Hopper <grace@example.com>" {
		t.Fatalf("label = %q", label)
	}
}

func TestRelation_ResolveLabelsBatchesMissingKeysAbsent(t *testing.T) {
	rel, err := source.NewRelation(authorStore(), "last_name")
	if err != nil {
		t.Fatalf("new relation: %v", err)
	}

	labels, err := rel.ResolveLabels(context.Background(), []string{"1", "99", "3"})
	if err != nil {
		t.Fatalf("resolve labels: %v", err)
	}
	want := map[string]string{"1": "Lovelace", "3": "Hopper"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestRelation_FilterModifierRunsBeforeSearch(t *testing.T) {
	st := authorStore()
	rel, err := source.NewRelation(st, "first_name",
		source.WithFilterModifier(func(filter *store.Filter) {
			filter.Columns = []string{"email"}
		}),
	)
	if err != nil {
		t.Fatalf("new relation: %v", err)
	}

	got, err := rel.Search(context.Background(), "grace@", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []option.Entry{{Key: "3", Label: "Grace"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("modified-filter results mismatch (-want +got):\n%s", diff)
	}
}

func TestRelation_SyncAtSubmitTime(t *testing.T) {
	st := authorStore()
	rel, err := source.NewRelation(st, "first_name", source.WithRelationshipName("authors"))
	if err != nil {
		t.Fatalf("new relation: %v", err)
	}

	ctx := context.Background()
	if err := rel.Attach(ctx, "post-1", []string{"1", "2"}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := rel.Detach(ctx, "post-1", []string{"2"}); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if err := rel.Sync(ctx, "post-1", []string{"2", "3"}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if diff := cmp.Diff([]string{"2", "3"}, st.Linked("post-1")); diff != "" {
		t.Fatalf("linked keys mismatch (-want +got):\n%s", diff)
	}
}

func TestRelation_CreateAndEditSubFlows(t *testing.T) {
	st := authorStore()
	rel, err := source.NewRelation(st, "first_name", source.WithTitleColumns("last_name"))
	if err != nil {
		t.Fatalf("new relation: %v", err)
	}

	ctx := context.Background()
	created, err := rel.SubmitCreate(ctx, map[string]string{
		"id": "4", "first_name": "Barbara", "last_name": "Liskov",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if diff := cmp.Diff(option.Entry{Key: "4", Label: "Barbara Liskov"}, created); diff != "" {
		t.Fatalf("created entry mismatch (-want +got):\n%s", diff)
	}

	edited, err := rel.SubmitEdit(ctx, "4", map[string]string{"first_name": "Barb"})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Label != "Barb Liskov" {
		t.Fatalf("edited label = %q", edited.Label)
	}
}
