package repository

import (
	"strings"
	"testing"
)

func TestBuildLikeConditionByDialect(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("sqlite", []string{"name", " ", "slug"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != `name LIKE ? ESCAPE '\' OR slug LIKE ? ESCAPE '\'` {
		t.Fatalf("unexpected sqlite condition: %s", condition)
	}

	condition, _ = buildLikeConditionByDialect("postgres", []string{"name"})
	if condition != `name ILIKE ? ESCAPE '\'` {
		t.Fatalf("unexpected postgres condition: %s", condition)
	}
}

func TestBuildLikeConditionDefaultsToSQLite(t *testing.T) {
	condition, argCount := buildLikeCondition(nil, productSearchColumns)
	if argCount != len(productSearchColumns) {
		t.Fatalf("arg count want %d got %d", len(productSearchColumns), argCount)
	}
	if strings.Contains(condition, "ILIKE") {
		t.Fatalf("nil db should use sqlite operator, got %s", condition)
	}
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	if got := likePattern(" 100%_or "); got != `%100\%\_or%` {
		t.Fatalf("unexpected pattern: %s", got)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%trone%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%trone%" {
			t.Fatalf("args[%d] want %%trone%% got %v", idx, arg)
		}
	}
}
