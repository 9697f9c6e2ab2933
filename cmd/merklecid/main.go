package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/WanderningMaster/merklecid/api"
	"github.com/WanderningMaster/merklecid/cid"
	"github.com/WanderningMaster/merklecid/configuration"
	"github.com/WanderningMaster/merklecid/internal/cidcache"
	"github.com/WanderningMaster/merklecid/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	conf := configuration.LoadUserConfig()

	var (
		cacheDir string
		noCache  bool
	)
	root := &cobra.Command{
		Use:           "merklecid <file>...",
		Short:         "Compute content identifiers for files",
		Long:          "Computes a chunked SHA-256 tree identifier per file and prints one CID per line.",
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			dir := cacheDir
			if noCache {
				dir = ""
			}
			return hashFiles(cmd, args, dir)
		},
	}
	root.Flags().StringVarP(&cacheDir, "cache", "c", conf.CacheDir, "identifier cache dir; unchanged files are not rehashed")
	root.Flags().BoolVarP(&noCache, "no-cache", "n", false, "bypass the identifier cache")

	cmdInspect := &cobra.Command{
		Use:   "inspect <cid>",
		Short: "Decode a CID and print its fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return inspect(cmd, args[0])
		},
	}
	root.AddCommand(cmdInspect)

	var serveListen string
	cmdServe := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP hashing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return api.Serve(ctx, serveListen)
		},
	}
	cmdServe.Flags().StringVarP(&serveListen, "listen", "l", fmt.Sprintf(":%d", conf.HttpPort), "address to listen on (host:port)")
	root.AddCommand(cmdServe)

	cmdCache := &cobra.Command{Use: "cache", Short: "Identifier cache operations"}

	var purgeDir string
	cmdCachePurge := &cobra.Command{
		Use:   "purge",
		Short: "Drop every cached identifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return purgeCache(cmd, purgeDir)
		},
	}
	cmdCachePurge.Flags().StringVarP(&purgeDir, "cache", "c", conf.CacheDir, "identifier cache dir")
	cmdCache.AddCommand(cmdCachePurge)
	root.AddCommand(cmdCache)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func hashFiles(cmd *cobra.Command, paths []string, cacheDir string) error {
	ctx := logging.WithPrefix(cmd.Context(), logging.CLIPrefix)

	var cache *cidcache.Cache
	if cacheDir != "" {
		c, err := cidcache.Open(cacheDir)
		if err != nil {
			// A broken cache must not block hashing.
			logging.Logf(ctx, "cache unavailable: %v", err)
		} else {
			cache = c
			defer cache.Close()
		}
	}

	for _, path := range paths {
		c, err := hashOne(ctx, cache, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), c)
	}
	return nil
}

func hashOne(ctx context.Context, cache *cidcache.Cache, path string) (cid.Cid, error) {
	f, err := os.Open(path)
	if err != nil {
		return cid.Cid{}, err
	}
	defer f.Close()

	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}

	if cache != nil {
		if info, err := f.Stat(); err == nil {
			if c, ok := cache.Lookup(ctx, key, info.Size(), info.ModTime()); ok {
				logging.Logf(ctx, "cache hit for %s", key)
				return c, nil
			}
		}
	}

	c, modified, err := cid.FromFile(cid.VersionRaw, f)
	if err != nil {
		return cid.Cid{}, err
	}
	if cache != nil {
		if err := cache.Store(ctx, key, int64(c.Size()), modified, c); err != nil {
			logging.Logf(ctx, "cache store for %s: %v", key, err)
		}
	}
	return c, nil
}

func inspect(cmd *cobra.Command, token string) error {
	c, err := cid.Parse(token)
	if err != nil {
		return err
	}
	h := c.Hash()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "cid:     %s\n", c)
	fmt.Fprintf(out, "version: %c\n", c.Version())
	fmt.Fprintf(out, "size:    %d\n", c.Size())
	fmt.Fprintf(out, "blocks:  %d\n", c.NumBlocks())
	fmt.Fprintf(out, "hash:    %x\n", h)
	return nil
}

func purgeCache(cmd *cobra.Command, dir string) error {
	if dir == "" {
		return errors.New("no cache directory configured")
	}
	cache, err := cidcache.Open(dir)
	if err != nil {
		return err
	}
	defer cache.Close()

	ctx := logging.WithPrefix(cmd.Context(), logging.CachePrefix)
	n, err := cache.Purge(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries\n", n)
	return nil
}
