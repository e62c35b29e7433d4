package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		want    *Params
		wantErr bool
	}{
		{
			name: "nil map",
			raw:  nil,
			want: &Params{},
		},
		{
			name: "empty map",
			raw:  map[string]any{},
			want: &Params{},
		},
		{
			name: "full params",
			raw: map[string]any{
				"extensions": []any{"httpfs", "json"},
				"settings":   map[string]any{"threads": "4"},
				"secrets": []any{
					map[string]any{
						"type":   "s3",
						"key_id": "AKIATEST",
						"secret": "sekret",
						"region": "us-west-2",
					},
				},
			},
			want: &Params{
				Extensions: []string{"httpfs", "json"},
				Settings:   map[string]string{"threads": "4"},
				Secrets: []SecretConfig{
					{Type: "s3", KeyID: "AKIATEST", Secret: "sekret", Region: "us-west-2"},
				},
			},
		},
		{
			name:    "extensions not a list",
			raw:     map[string]any{"extensions": 42},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSecretConfig_CreateSQL(t *testing.T) {
	tests := []struct {
		name   string
		secret SecretConfig
		want   string
	}{
		{
			name:   "minimal",
			secret: SecretConfig{Type: "s3"},
			want:   "CREATE OR REPLACE SECRET lake_secret (\n    TYPE s3\n)",
		},
		{
			name: "explicit keys",
			secret: SecretConfig{
				Type:   "s3",
				KeyID:  "AKIATEST",
				Secret: "sekret",
				Region: "us-west-2",
			},
			want: "CREATE OR REPLACE SECRET lake_secret (\n" +
				"    TYPE s3,\n" +
				"    KEY_ID 'AKIATEST',\n" +
				"    SECRET 'sekret',\n" +
				"    REGION 'us-west-2'\n)",
		},
		{
			name: "credential chain with scope",
			secret: SecretConfig{
				Type:     "s3",
				Provider: "credential_chain",
				Scope:    "s3://my-lake",
			},
			want: "CREATE OR REPLACE SECRET lake_secret (\n" +
				"    TYPE s3,\n" +
				"    PROVIDER credential_chain,\n" +
				"    SCOPE 's3://my-lake'\n)",
		},
		{
			name: "quotes escaped",
			secret: SecretConfig{
				Type:   "s3",
				Secret: "it's",
			},
			want: "CREATE OR REPLACE SECRET lake_secret (\n" +
				"    TYPE s3,\n" +
				"    SECRET 'it''s'\n)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.secret.CreateSQL("lake_secret"))
		})
	}
}
