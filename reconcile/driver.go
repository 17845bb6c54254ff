// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/reconsql/reconsql/adapter"
	"github.com/reconsql/reconsql/config"
	"github.com/reconsql/reconsql/internal/logging"
	"github.com/reconsql/reconsql/rerrors"
)

// Reconciler ties the range inferrer, partition generator, block-hash
// planner, classifier, recursive subdivision driver, and merger into one
// entry point — the Go analog of the original's Engine.
type Reconciler struct {
	Adapters       config.Adapters
	Config         config.Reconciliation
	MaxConcurrency int // <=0 defaults to 8, per §5's resource model

	log logrus.FieldLogger
}

// NewReconciler validates rc and returns a Reconciler ready to Run. The
// driver's logger is resolved here, not at package load, so it picks up
// whatever output/level cmd/reconsql's logging.SetOutput configured
// before constructing the Reconciler — a package-level var would have
// captured the pre-SetOutput default logger permanently.
func NewReconciler(adapters config.Adapters, rc config.Reconciliation) (*Reconciler, error) {
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	return &Reconciler{Adapters: adapters, Config: rc, log: logging.For("driver")}, nil
}

func (r *Reconciler) concurrencyLimit() int {
	if r.MaxConcurrency > 0 {
		return r.MaxConcurrency
	}
	return 8
}

// Run executes one full reconciliation pass: infer the range, derive the
// interval ladder, classify every top-level partition concurrently
// (recursing into finer levels wherever a block differs), and merge
// adjacent same-status leaves into the final report.
func (r *Reconciler) Run(ctx context.Context, now time.Time) ([]AlignedBlock, error) {
	start, end, err := ResolveRange(ctx, r.Adapters.SourceState, r.Adapters.SinkState, r.Config, now)
	if err != nil {
		return nil, err
	}
	if start == nil || end == nil {
		return nil, nil
	}
	start, end = normalizeUTC(start), normalizeUTC(end)
	if err := requireOrder(start, end); err != nil {
		return nil, err
	}

	intervals, err := DeriveIntervals(r.Config.InitialPartitionInterval, r.Config.MaxBlockSize, r.Config.IntervalReductionFactor)
	if err != nil {
		return nil, err
	}

	partitions := partitionGenerator(start, end, intervals[0])
	r.log.WithFields(logrus.Fields{
		"start":      start,
		"end":        end,
		"partitions": len(partitions),
		"intervals":  intervals,
	}).Info("reconciliation pass starting")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrencyLimit())

	results := make([][]AlignedBlock, len(partitions))
	for i, p := range partitions {
		i, p := i, p
		g.Go(func() error {
			blocks, err := r.classify(gctx, p.start, p.end, 1, intervals)
			if err != nil {
				return err
			}
			results[i] = blocks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []AlignedBlock
	for _, rs := range results {
		all = append(all, rs...)
	}
	merged := mergeAdjacent(all, r.Config.MaxBlockSize)
	logging.Recursion(r.log, 1, start, end, tally(merged))
	return merged, nil
}

func tally(blocks []AlignedBlock) map[string]int {
	t := make(map[string]int, 4)
	for _, b := range blocks {
		t[b.Status.String()]++
	}
	return t
}

// classify computes one level's block hashes for both sides over
// [start, end), aligns and classifies them, and recurses into any
// Modified or Added block whose row count exceeds MaxBlockSize, at the
// next finer level, until the leaf level (len(intervals)) is reached.
// Sibling recursions run concurrently, bounded by the same concurrency
// limit as the top-level fan-out.
func (r *Reconciler) classify(ctx context.Context, start, end any, level int, intervals []int64) ([]AlignedBlock, error) {
	if ctx.Err() != nil {
		return nil, rerrors.ErrCancelled.New("classify")
	}

	var srcRows, snkRows []adapter.Row
	fg, fctx := errgroup.WithContext(ctx)
	fg.Go(func() error {
		rows, err := fetchBlocks(fctx, r.Adapters.Source, r.Config, start, end, level, intervals)
		if err != nil {
			return err
		}
		srcRows = rows
		return nil
	})
	fg.Go(func() error {
		rows, err := fetchBlocks(fctx, r.Adapters.Sink, r.Config, start, end, level, intervals)
		if err != nil {
			return err
		}
		snkRows = rows
		return nil
	})
	if err := fg.Wait(); err != nil {
		return nil, err
	}

	srcBlocks, err := toBlocks(srcRows, start, end, level, intervals)
	if err != nil {
		return nil, err
	}
	snkBlocks, err := toBlocks(snkRows, start, end, level, intervals)
	if err != nil {
		return nil, err
	}

	pairs := align(srcBlocks, snkBlocks)
	r.log.WithFields(logrus.Fields{"level": level, "start": start, "end": end, "blocks": len(pairs)}).Debug("classified level")

	if level >= len(intervals) {
		return pairs, nil
	}

	var mu sync.Mutex
	var out []AlignedBlock
	rg, rgctx := errgroup.WithContext(ctx)
	rg.SetLimit(r.concurrencyLimit())

	for _, pair := range pairs {
		pair := pair
		// §4.H step 3: only M or A blocks ever recurse, and only when
		// oversized for the current level; N and D are always leaves,
		// and an oversized block at the finest level is emitted as-is
		// for the executor to handle.
		recursable := pair.Status == StatusModified || pair.Status == StatusAdded
		if !recursable || pair.Chosen().NumRows <= r.Config.MaxBlockSize {
			mu.Lock()
			out = append(out, pair)
			mu.Unlock()
			continue
		}
		start, end := pair.Bounds()
		rg.Go(func() error {
			sub, err := r.classify(rgctx, start, end, level+1, intervals)
			if err != nil {
				return err
			}
			mu.Lock()
			out = append(out, sub...)
			mu.Unlock()
			return nil
		})
	}
	if err := rg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// fetchBlocks plans and issues one block-hash query for a single role,
// tagging the operation name with its level for observability.
func fetchBlocks(ctx context.Context, a adapter.Adapter, rc config.Reconciliation, start, end any, level int, intervals []int64) ([]adapter.Row, error) {
	if ctx.Err() != nil {
		return nil, rerrors.ErrCancelled.New("fetch_blocks")
	}
	q, err := planBlockHashQuery(start, end, level, intervals, a, rc)
	if err != nil {
		return nil, err
	}
	return a.Fetch(ctx, q, fmt.Sprintf("block_hash_level_%d", level))
}
