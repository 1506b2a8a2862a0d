package main

import (
	"fmt"
	"strings"
	"time"

	"context"

	"dagger/provtag/internal/dagger"
)

// Build and return directory of go binaries. Builds run inside the shared
// CGO container so the sqlite-backed run index links correctly; the matrix
// covers the architectures gcc can target natively there.
func (t *Provtag) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	goarches := []string{"amd64"}

	// create empty directory to put build artifacts
	outputs := dag.Directory()

	golang := t.goContainer()

	for _, goarch := range goarches {
		path := fmt.Sprintf("linux/%s/", goarch)

		build := golang.
			WithEnvVariable("GOOS", "linux").
			WithEnvVariable("GOARCH", goarch).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/provtag"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (t *Provtag) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now()

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/provtagio/provtag/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/provtagio/provtag/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/provtagio/provtag/pkg/utils.Buildtime=%s'", buildtime),
	}

	return t.Build(ctx, strings.Join(ldflags, " "))
}
