// Package hoststatus collects a point-in-time snapshot of the local host:
// platform, processors, memory, load, processes and logged-in users.
package hoststatus

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/benvon/dashcollect/internal/models"
	"github.com/benvon/dashcollect/internal/output"
	"github.com/benvon/dashcollect/internal/parsers"
)

const tracerName = "github.com/benvon/dashcollect/internal/hoststatus"

// Options locates the host's data sources.
type Options struct {
	CPUInfoPath         string
	MemInfoPath         string
	FreeCommand         []string
	TopCommand          []string
	WhoCommand          []string
	NumericMemoryTotals bool
	OutputDir           string
}

// Collector builds a HostSnapshot from a System.
type Collector struct {
	sys    System
	opts   Options
	logger *zap.Logger
	tracer trace.Tracer
}

// NewCollector returns a collector reading from sys.
func NewCollector(sys System, opts Options, zapLogger *zap.Logger) *Collector {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &Collector{
		sys:    sys,
		opts:   opts,
		logger: zapLogger,
		tracer: otel.Tracer(tracerName),
	}
}

// Run collects a snapshot and writes it to <OutputDir>/<hostname>.json,
// returning the path written. Nothing is written when collection fails.
func (c *Collector) Run(ctx context.Context) (string, error) {
	snapshot, err := c.Collect(ctx)
	if err != nil {
		return "", err
	}

	path, err := c.OutputPath(snapshot.Distribution.Hostname)
	if err != nil {
		return "", err
	}
	if err := output.WriteJSON(path, snapshot); err != nil {
		return "", err
	}
	c.logger.Info("host_snapshot_written", zap.String("path", path))
	return path, nil
}

// OutputPath returns the snapshot file for hostname.
func (c *Collector) OutputPath(hostname string) (string, error) {
	if hostname == "" || hostname == "." || hostname == ".." || strings.ContainsAny(hostname, `/\`) {
		return "", fmt.Errorf("hostname %q cannot be used as a file name", hostname)
	}
	return filepath.Join(c.opts.OutputDir, hostname+".json"), nil
}

// Collect gathers every section of the snapshot. The first failing source aborts collection.
func (c *Collector) Collect(ctx context.Context) (*models.HostSnapshot, error) {
	ctx, span := c.tracer.Start(ctx, "hoststatus.collect")
	defer span.End()

	start := time.Now()
	snapshot, err := c.collect(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("host.name", snapshot.Distribution.Hostname),
		attribute.Int("host.processes", snapshot.Processes.Rows()),
	)
	c.logger.Info("host_collection_completed",
		zap.String("hostname", snapshot.Distribution.Hostname),
		zap.Int("processors", len(snapshot.Processors)),
		zap.Int("processes", snapshot.Processes.Rows()),
		zap.Int("users", len(snapshot.Users)),
		zap.Duration("duration", time.Since(start)),
	)
	return snapshot, nil
}

func (c *Collector) collect(ctx context.Context) (*models.HostSnapshot, error) {
	snapshot := &models.HostSnapshot{}
	var err error

	if snapshot.Distribution, err = c.sys.Platform(ctx); err != nil {
		return nil, fmt.Errorf("platform: %w", err)
	}

	cpuinfo, err := c.sys.ReadFile(ctx, c.opts.CPUInfoPath)
	if err != nil {
		return nil, err
	}
	if snapshot.Processors, err = parsers.ParseCPUInfo(bytes.NewReader(cpuinfo)); err != nil {
		return nil, err
	}

	meminfo, err := c.sys.ReadFile(ctx, c.opts.MemInfoPath)
	if err != nil {
		return nil, err
	}
	if snapshot.Memory.Fields, err = parsers.ParseMemInfo(bytes.NewReader(meminfo)); err != nil {
		return nil, err
	}

	free, err := c.run(ctx, c.opts.FreeCommand)
	if err != nil {
		return nil, err
	}
	if snapshot.Memory.Quick, err = parsers.ParseFree(bytes.NewReader(free), c.opts.NumericMemoryTotals); err != nil {
		return nil, err
	}

	top, err := c.run(ctx, c.opts.TopCommand)
	if err != nil {
		return nil, err
	}
	if snapshot.ProcessInfo, snapshot.Processes, err = parsers.ParseTop(bytes.NewReader(top)); err != nil {
		return nil, err
	}

	who, err := c.run(ctx, c.opts.WhoCommand)
	if err != nil {
		return nil, err
	}
	if snapshot.Users, err = parsers.ParseW(bytes.NewReader(who)); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (c *Collector) run(ctx context.Context, argv []string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "hoststatus.command",
		trace.WithAttributes(attribute.StringSlice("process.command_args", argv)))
	defer span.End()

	out, err := c.sys.Run(ctx, argv)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("command failed: %w", err)
	}
	return out, nil
}
