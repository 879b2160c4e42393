package review

import "testing"

func TestSkipPolicy_Lockfiles(t *testing.T) {
	p := DefaultSkipPolicy()

	// package-lock.json is denied both by the .json extension and by the
	// substring pattern; either alone must be sufficient.
	if !p.Skip("package-lock.json") {
		t.Error("package-lock.json should be skipped")
	}
	if !p.Skip("frontend/package-lock.json") {
		t.Error("nested package-lock.json should be skipped")
	}
}

func TestSkipPolicy_MinifiedBySubstring(t *testing.T) {
	p := DefaultSkipPolicy()

	// .js alone is not a denied extension; only the .min.js pattern
	// catches minified bundles.
	if p.Skip("app.js") {
		t.Error("app.js should not be skipped")
	}
	if !p.Skip("app.min.js") {
		t.Error("app.min.js should be skipped by substring match")
	}
	if !p.Skip("dist/vendor.min.css") {
		t.Error("vendor.min.css should be skipped")
	}
}

func TestSkipPolicy_CaseInsensitive(t *testing.T) {
	p := DefaultSkipPolicy()
	if !p.Skip("README.MD") {
		t.Error("README.MD should be skipped regardless of case")
	}
	if !p.Skip("assets/Logo.PNG") {
		t.Error("Logo.PNG should be skipped regardless of case")
	}
}

func TestSkipPolicy_DotfilesAndDirs(t *testing.T) {
	p := DefaultSkipPolicy()
	if !p.Skip(".gitignore") {
		t.Error(".gitignore should be skipped")
	}
	if !p.Skip("config/.env") {
		t.Error(".env should be skipped")
	}
	if !p.Skip("node_modules/lodash/index.js") {
		t.Error("files under node_modules should be skipped")
	}
}

func TestSkipPolicy_KeepsSourceFiles(t *testing.T) {
	p := DefaultSkipPolicy()
	for _, path := range []string{"main.go", "src/server.py", "lib/util.ts", "cmd/run.sh"} {
		if p.Skip(path) {
			t.Errorf("%s should not be skipped", path)
		}
	}
}

func TestSkipPolicy_Extend(t *testing.T) {
	p := DefaultSkipPolicy().Extend([]string{"proto", ".Gen.go"}, []string{"Vendor/"})

	if !p.Skip("api/service.proto") {
		t.Error("extended extension without leading dot should apply")
	}
	if !p.Skip("types.gen.go") {
		t.Error("extended extension should be normalized to lower case")
	}
	if !p.Skip("vendor/github.com/pkg/errors/errors.go") {
		t.Error("extended pattern should be matched case-insensitively")
	}
	// The original policy must be unchanged.
	base := DefaultSkipPolicy()
	if base.Skip("api/service.proto") {
		t.Error("Extend must not mutate the default policy")
	}
}

func TestSkipPolicy_CompoundExtensions(t *testing.T) {
	p := DefaultSkipPolicy().Extend([]string{".gen.go", ".pb.go"}, nil)

	if !p.Skip("internal/store/schema.gen.go") {
		t.Error("schema.gen.go should be skipped by the .gen.go entry")
	}
	if !p.Skip("api/v1/service.pb.go") {
		t.Error("service.pb.go should be skipped by the .pb.go entry")
	}
	// Only the full compound suffix matches.
	if p.Skip("internal/store/schema.go") {
		t.Error("schema.go should not be skipped")
	}
	if p.Skip("api/v1/service.go") {
		t.Error("service.go should not be skipped")
	}
}

func TestSkipPolicy_Filter(t *testing.T) {
	p := DefaultSkipPolicy()
	changes := []FileChange{
		{Path: "main.go", Patch: "@@ -1 +1 @@\n-a\n+b\n"},
		{Path: "README.md", Patch: "@@ -1 +1 @@\n-a\n+b\n"},
		{Path: "image.bin", Patch: ""}, // no patch: nothing to analyze
		{Path: "server.py", Patch: "@@ -1 +1 @@\n-a\n+b\n"},
	}

	kept, skipped := p.Filter(changes)
	if len(kept) != 2 {
		t.Fatalf("kept = %d files, want 2", len(kept))
	}
	if kept[0].Path != "main.go" || kept[1].Path != "server.py" {
		t.Errorf("kept = %v", []string{kept[0].Path, kept[1].Path})
	}
	if len(skipped) != 2 {
		t.Errorf("skipped = %d files, want 2", len(skipped))
	}
}
