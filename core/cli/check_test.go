package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDeclFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decls.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestValidateCheckFlags(t *testing.T) {
	decls := writeDeclFile(t)

	valid := CheckOptions{
		OldPath: decls,
		NewPath: decls,
		Profile: "lp64",
		Format:  "text",
		Color:   "auto",
	}
	if err := validateCheckFlags(valid); err != nil {
		t.Errorf("valid options rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*CheckOptions)
		wantErr string
	}{
		{
			name:    "missing_old",
			mutate:  func(o *CheckOptions) { o.OldPath = "" },
			wantErr: "required",
		},
		{
			name:    "nonexistent_new",
			mutate:  func(o *CheckOptions) { o.NewPath = filepath.Join(t.TempDir(), "nope.json") },
			wantErr: "does not exist",
		},
		{
			name:    "directory_path",
			mutate:  func(o *CheckOptions) { o.OldPath = t.TempDir() },
			wantErr: "is a directory",
		},
		{
			name:    "unknown_profile",
			mutate:  func(o *CheckOptions) { o.Profile = "vax" },
			wantErr: "unknown target profile",
		},
		{
			name:    "unknown_format",
			mutate:  func(o *CheckOptions) { o.Format = "xml" },
			wantErr: "unknown output format",
		},
		{
			name:    "unknown_color",
			mutate:  func(o *CheckOptions) { o.Color = "sometimes" },
			wantErr: "unknown color mode",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := valid
			tc.mutate(&opts)
			err := validateCheckFlags(opts)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}
