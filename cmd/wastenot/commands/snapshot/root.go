package snapshot

import (
	"fmt"
	"strings"
	"wastenot-e2e/cmd/wastenot/globals"
	"wastenot-e2e/internal/catalog"
	snap "wastenot-e2e/internal/snapshot"
	"wastenot-e2e/internal/wastenotapi"

	"github.com/spf13/cobra"
)

var RootCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save API responses as snapshots and validate live responses against them.",
}

var (
	compareFlag    string
	samplerFlag    string
	sampleSizeFlag int
	seedFlag       int64
)

func init() {
	for _, cmd := range []*cobra.Command{saveCmd, validateCmd, runCmd} {
		cmd.Flags().StringVar(&compareFlag, "compare", "", "exact or fields (overrides the suite)")
		cmd.Flags().StringVar(&samplerFlag, "sampler", "", "all, first or random (overrides the suite)")
		cmd.Flags().IntVar(&sampleSizeFlag, "sample-size", 0, "records checked by the first and random samplers")
		cmd.Flags().Int64Var(&seedFlag, "seed", 0, "seed for the random sampler")
		RootCmd.AddCommand(cmd)
	}
	RootCmd.AddCommand(listCmd)
}

type target struct {
	verifier snap.Verifier
	queries  []wastenotapi.Query
}

func buildOptions(cmd *cobra.Command, g *globals.Value, suite catalog.APISuite) (snap.Options, error) {
	cfg := g.Config.Snapshots

	seed := cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = &seedFlag
	}
	rng := snap.NewRandomSource(seed)
	opts := suite.Options(rng)

	compare := cfg.Compare
	if compareFlag != "" {
		compare = compareFlag
	}
	if compare != "" {
		mode, err := snap.ParseCompareMode(compare)
		if err != nil {
			return snap.Options{}, err
		}
		opts.Compare = mode
	}

	sampler := cfg.Sampler
	if samplerFlag != "" {
		sampler = samplerFlag
	}
	size := suite.SampleSize
	if cfg.SampleSize > 0 {
		size = cfg.SampleSize
	}
	if sampleSizeFlag > 0 {
		size = sampleSizeFlag
	}
	if size <= 0 {
		size = catalog.DefaultSampleSize
	}
	switch sampler {
	case "":
	case "all":
		opts.Sampler = snap.SampleAll()
	case "first":
		opts.Sampler = snap.SampleFirst(size)
	case "random":
		opts.Sampler = snap.SampleRandom(size, rng)
	default:
		return snap.Options{}, fmt.Errorf("unknown sampler %q (want all, first or random)", sampler)
	}
	return opts, nil
}

// resolve builds a verifier for the suite named by args[0], the remaining
// args select resources by name.
func resolve(cmd *cobra.Command, args []string) (target, error) {
	g := globals.Get(cmd.Context())

	suite, err := catalog.LookupAPISuite(args[0], g.Clock.Now())
	if err != nil {
		return target{}, err
	}
	queries := suite.Queries
	if len(args) > 1 {
		queries = nil
		for _, name := range args[1:] {
			q, ok := suite.Query(name)
			if !ok {
				q, ok = suite.Query(suite.Name + "_" + name)
			}
			if !ok {
				var names []string
				for _, q := range suite.Queries {
					names = append(names, q.Name)
				}
				return target{}, fmt.Errorf("unknown resource %q in suite %s (available: %s)", name, suite.Name, strings.Join(names, ", "))
			}
			queries = append(queries, q)
		}
	}

	opts, err := buildOptions(cmd, g, suite)
	if err != nil {
		return target{}, err
	}

	client, err := wastenotapi.NewClient(g.Config.API, g.Tel, wastenotapi.ClientOptions{Output: g.HTTPOutput})
	if err != nil {
		return target{}, err
	}
	store, err := snap.NewStore(g.Config.Snapshots.Dir)
	if err != nil {
		return target{}, err
	}

	var archive snap.Archive
	if g.Config.Snapshots.Archive.Enabled() {
		minio, err := snap.NewMinioArchive(g.Config.Snapshots.Archive)
		if err != nil {
			return target{}, err
		}
		archive = minio
	}

	verifier := snap.NewVerifier(snap.VerifierParams{
		Fetcher: client,
		Store:   store,
		Archive: archive,
		BaseURL: g.Config.API.BaseURL,
		Tel:     g.Tel,
	}, opts)
	g.Tel.ReportDebug("snapshot options", suite.Name, opts.Compare.String(), opts.Sampler.String())

	return target{verifier: verifier, queries: queries}, nil
}
