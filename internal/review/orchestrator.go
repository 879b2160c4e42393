package review

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/quorum/internal/progress"
)

// defaultTaskTimeout bounds one (agent, file) analysis task, retries
// included.
const defaultTaskTimeout = 60 * time.Second

// TaskRunner executes one (agent, file) analysis task and always
// produces a result. [*Runner] is the production implementation.
type TaskRunner interface {
	Run(ctx context.Context, spec AgentSpec, change FileChange, pr PullRequest, instructions string) AnalysisResult
}

// Fetcher supplies pull-request context and its change set.
type Fetcher interface {
	FetchPR(ctx context.Context, owner, repo string, number int) (PullRequest, error)
	FetchChangedFiles(ctx context.Context, owner, repo string, number int) ([]FileChange, error)
}

// Publisher posts a review summary back to the pull request.
type Publisher interface {
	PostComment(ctx context.Context, owner, repo string, number int, body string) (int64, error)
}

// Options configures an orchestrated run.
type Options struct {
	// Agents to run per file. Empty means [DefaultAgents].
	Agents []AgentSpec
	// Skip overrides the file skip policy. Nil means [DefaultSkipPolicy].
	Skip         *SkipPolicy
	Instructions string
	// Post publishes the summary as a comment when the run found issues.
	Post        bool
	TaskTimeout time.Duration
	Version     string
	// RunID overrides the generated run id so a caller can address the
	// run before its report exists (serve mode).
	RunID string
}

// Orchestrator drives a review run: fetch, skip-filter, per-file agent
// fan-out, aggregation, and optional publishing, reporting progress on
// its bus throughout. Files are analyzed sequentially; the agents for
// one file run concurrently.
type Orchestrator struct {
	runner    TaskRunner
	fetcher   Fetcher
	publisher Publisher
	bus       *progress.Bus

	agents       []AgentSpec
	skip         SkipPolicy
	instructions string
	post         bool
	taskTimeout  time.Duration
	version      string
	runID        string
}

// NewOrchestrator wires a run. fetcher may be nil for locally produced
// change sets, publisher may be nil when posting is disabled, and bus
// may be nil when no consumer wants progress.
func NewOrchestrator(runner TaskRunner, fetcher Fetcher, publisher Publisher, bus *progress.Bus, opts Options) *Orchestrator {
	if bus == nil {
		bus = progress.NewBus(0)
	}
	agents := opts.Agents
	if len(agents) == 0 {
		agents = DefaultAgents()
	}
	skip := DefaultSkipPolicy()
	if opts.Skip != nil {
		skip = *opts.Skip
	}
	timeout := opts.TaskTimeout
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}
	version := opts.Version
	if version == "" {
		version = "1.0"
	}

	return &Orchestrator{
		runner:       runner,
		fetcher:      fetcher,
		publisher:    publisher,
		bus:          bus,
		agents:       agents,
		skip:         skip,
		instructions: opts.Instructions,
		post:         opts.Post,
		taskTimeout:  timeout,
		version:      version,
		runID:        opts.RunID,
	}
}

// Review fetches the pull request identified by target and reviews it.
// The PR metadata and the changed files are fetched concurrently; either
// failure is fatal to the run. Everything after the fetch reports
// failures inside the returned report instead of an error.
func (o *Orchestrator) Review(ctx context.Context, target Target) (*Report, error) {
	start := time.Now()
	rep := o.newReport(target)
	o.emitStarted(rep)

	if target.Manual {
		return o.fail(rep, start, fmt.Errorf("target %s has no pull request to fetch", target))
	}
	if o.fetcher == nil {
		return o.fail(rep, start, errors.New("no fetcher configured"))
	}

	o.bus.Emit(progress.StageFetching, fmt.Sprintf("Fetching %s", target),
		map[string]any{"target": target.String()})

	fetchStart := time.Now()
	var pr PullRequest
	var changes []FileChange
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pr, err = o.fetcher.FetchPR(gctx, target.Owner, target.Repo, target.Number)
		return err
	})
	g.Go(func() error {
		var err error
		changes, err = o.fetcher.FetchChangedFiles(gctx, target.Owner, target.Repo, target.Number)
		return err
	})
	if err := g.Wait(); err != nil {
		return o.fail(rep, start, fmt.Errorf("fetching pull request: %w", err))
	}
	rep.PR = &pr
	rep.Timing.FetchMs = time.Since(fetchStart).Milliseconds()

	o.bus.Emit(progress.StageFetched, fmt.Sprintf("Fetched %d changed files", len(changes)),
		map[string]any{"files": len(changes), "title": pr.Title})

	return o.analyze(ctx, rep, start, &pr, changes)
}

// ReviewChanges reviews an already materialized change set, typically a
// local diff. pr may be nil.
func (o *Orchestrator) ReviewChanges(ctx context.Context, target Target, pr *PullRequest, changes []FileChange) (*Report, error) {
	start := time.Now()
	rep := o.newReport(target)
	rep.PR = pr
	o.emitStarted(rep)
	return o.analyze(ctx, rep, start, pr, changes)
}

func (o *Orchestrator) analyze(ctx context.Context, rep *Report, start time.Time, pr *PullRequest, changes []FileChange) (*Report, error) {
	kept, skipped := o.skip.Filter(changes)

	var prCtx PullRequest
	if pr != nil {
		prCtx = *pr
	}

	results := make([]AnalysisResult, 0, len(kept)*len(o.agents))
	analysisStart := time.Now()

	for i, change := range kept {
		// Observe cancellation only between files: in-flight tasks below
		// run to completion, no new file is scheduled.
		if ctx.Err() != nil {
			rep.Cancelled = true
			break
		}

		o.bus.Emit(progress.StageAnalyzingFile,
			fmt.Sprintf("Analyzing %s (%d/%d)", change.Path, i+1, len(kept)),
			map[string]any{"file": change.Path, "index": i + 1, "total": len(kept)})

		fileResults := make([]AnalysisResult, len(o.agents))
		var wg sync.WaitGroup
		for j, spec := range o.agents {
			wg.Add(1)
			go func(j int, spec AgentSpec) {
				defer wg.Done()

				o.bus.Emit(progress.StageAgentAnalyzing,
					fmt.Sprintf("%s analyzing %s", spec.Name, change.Path),
					map[string]any{"agent": spec.ID, "file": change.Path})

				// Detach from the run context so cancellation lets the
				// task finish; the task timeout still bounds it.
				taskCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.taskTimeout)
				defer cancel()
				res := o.runner.Run(taskCtx, spec, change, prCtx, o.instructions)
				fileResults[j] = res

				payload := map[string]any{
					"agent":    spec.ID,
					"file":     change.Path,
					"severity": string(res.Severity),
					"issues":   len(res.Issues),
				}
				if res.Failed() {
					payload["error"] = res.Err
				}
				o.bus.Emit(progress.StageAgentCompleted,
					fmt.Sprintf("%s completed %s", spec.Name, change.Path), payload)
			}(j, spec)
		}
		wg.Wait()

		results = append(results, fileResults...)
		rep.FilesReviewed++

		findings := 0
		for _, r := range fileResults {
			if r.HasIssues() {
				findings++
			}
		}
		o.bus.Emit(progress.StageFileAnalyzed,
			fmt.Sprintf("Finished %s (%d findings)", change.Path, findings),
			map[string]any{"file": change.Path, "findings": findings})
	}
	rep.Timing.LLMMs = time.Since(analysisStart).Milliseconds()

	o.bus.Emit(progress.StageSummarizing, "Aggregating results",
		map[string]any{"files": rep.FilesReviewed, "skipped": len(skipped)})

	counts, rec, summary := Aggregate(results, rep.Target, pr, o.instructions)
	rep.Results = results
	rep.Counts = counts
	rep.Recommendation = rec
	rep.Summary = summary
	rep.TotalFindings = CountFindings(results)

	if o.post && o.publisher != nil && !rep.Target.Manual && !rep.Cancelled && rep.TotalFindings > 0 {
		o.bus.Emit(progress.StagePosting, "Posting review comment", nil)
		id, err := o.publisher.PostComment(ctx, rep.Target.Owner, rep.Target.Repo, rep.Target.Number, summary)
		if err != nil {
			// Publishing is best effort: record and move on.
			rep.PublishError = err.Error()
		} else {
			rep.CommentID = id
		}
	}

	rep.Status = StatusSuccess
	rep.Timing.TotalMs = time.Since(start).Milliseconds()

	payload := map[string]any{
		"findings":       rep.TotalFindings,
		"recommendation": string(rep.Recommendation),
		"files":          rep.FilesReviewed,
	}
	if rep.Cancelled {
		payload["cancelled"] = true
	}
	o.bus.Emit(progress.StageCompleted, "Review completed", payload)
	o.bus.Close()
	return rep, nil
}

// fail finalizes a run on a fatal error: the report carries the error,
// the terminal event is "error", and the error is also returned.
func (o *Orchestrator) fail(rep *Report, start time.Time, err error) (*Report, error) {
	rep.Status = StatusError
	rep.Error = err.Error()
	rep.Timing.TotalMs = time.Since(start).Milliseconds()
	o.bus.Emit(progress.StageError, err.Error(), map[string]any{"error": err.Error()})
	o.bus.Close()
	return rep, err
}

func (o *Orchestrator) newReport(target Target) *Report {
	id := o.runID
	if id == "" {
		id = generateRunID()
	}
	return &Report{
		Tool:    "quorum",
		Version: o.version,
		RunID:   id,
		Target:  target,
	}
}

func (o *Orchestrator) emitStarted(rep *Report) {
	ids := make([]string, len(o.agents))
	for i, a := range o.agents {
		ids[i] = a.ID
	}
	o.bus.Emit(progress.StageStarted, fmt.Sprintf("Review started for %s", rep.Target),
		map[string]any{"target": rep.Target.String(), "agents": ids, "runId": rep.RunID})
}

func generateRunID() string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%d", time.Now().UnixNano())))
	return fmt.Sprintf("%x", h[:16])
}
