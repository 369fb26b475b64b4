package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "simple",
			script: "CREATE TABLE a (id int);\nCREATE TABLE b (id int);",
			want:   []string{"CREATE TABLE a (id int)", "CREATE TABLE b (id int)"},
		},
		{
			name:   "semicolon in string",
			script: "INSERT INTO t VALUES ('a;b', 'it''s');",
			want:   []string{"INSERT INTO t VALUES ('a;b', 'it''s')"},
		},
		{
			name:   "comments",
			script: "-- drop it; really\nDROP TABLE a; /* ; */ DROP TABLE b;",
			want:   []string{"DROP TABLE a", "DROP TABLE b"},
		},
		{
			name: "dollar quoted body",
			script: "CREATE FUNCTION f() RETURNS void AS $body$ BEGIN PERFORM 1; END; $body$ LANGUAGE plpgsql;\n" +
				"SELECT 1;",
			want: []string{
				"CREATE FUNCTION f() RETURNS void AS $body$ BEGIN PERFORM 1; END; $body$ LANGUAGE plpgsql",
				"SELECT 1",
			},
		},
		{
			name:   "positional parameters are not tags",
			script: "SELECT $1, $2;",
			want:   []string{"SELECT $1, $2"},
		},
		{
			name:   "empty",
			script: " ;\n; ",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.script))
		})
	}
}
