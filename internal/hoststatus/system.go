package hoststatus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"go.uber.org/zap"

	"github.com/benvon/dashcollect/internal/logger"
	"github.com/benvon/dashcollect/internal/models"
)

// System is the collector's view of the machine it runs on.
type System interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Run(ctx context.Context, argv []string) ([]byte, error)
	Platform(ctx context.Context) (models.Distribution, error)
}

type uname struct {
	sysname, release, version, machine string
}

// commandEnv pins number formatting and output width of procps tools.
var commandEnv = []string{"LC_ALL=C", "COLUMNS=512"}

// LocalSystem reads the local /proc filesystem and runs local commands.
type LocalSystem struct {
	osReleasePath  string
	commandTimeout time.Duration
	logger         *zap.Logger
}

// NewLocalSystem returns a System for the current host. Every command is
// killed after commandTimeout.
func NewLocalSystem(osReleasePath string, commandTimeout time.Duration, zapLogger *zap.Logger) *LocalSystem {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &LocalSystem{
		osReleasePath:  osReleasePath,
		commandTimeout: commandTimeout,
		logger:         zapLogger,
	}
}

// ReadFile reads path in full.
func (s *LocalSystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Run executes argv and returns its standard output.
func (s *LocalSystem) Run(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("missing executable")
	}

	execCtx, cancel := context.WithTimeout(ctx, s.commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), commandEnv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	s.logger.Debug("command_finished",
		zap.Strings("argv", argv),
		zap.Duration("duration", time.Since(start)),
		zap.Int("stdout_bytes", stdout.Len()),
	)
	if err != nil {
		if execCtx.Err() != nil {
			return nil, fmt.Errorf("%s: %w", strings.Join(argv, " "), execCtx.Err())
		}
		return nil, fmt.Errorf("%s: %w", strings.Join(argv, " "), commandError(err, stderr.String()))
	}
	return stdout.Bytes(), nil
}

func commandError(err error, stderr string) error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("exit code %d: %w", exitCode, err)
	}
	return fmt.Errorf("exit code %d: %s", exitCode, logger.SanitizeString(stderr, logger.MaxErrorMessageLength))
}

// Platform describes the OS, kernel and distribution.
func (s *LocalSystem) Platform(ctx context.Context) (models.Distribution, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return models.Distribution{}, fmt.Errorf("failed to read host info: %w", err)
	}

	u, err := readUname(info)
	if err != nil {
		return models.Distribution{}, err
	}

	dist := models.Distribution{
		OS:                u.sysname,
		Hostname:          info.Hostname,
		Release:           u.release,
		Version:           u.version,
		Machine:           u.machine,
		Processor:         info.KernelArch,
		LinuxDistribution: info.Platform,
		LinuxVersion:      info.PlatformVersion,
		Architecture:      architecture(runtime.GOOS, strconv.IntSize),
	}

	release, err := os.ReadFile(s.osReleasePath)
	if err != nil {
		s.logger.Debug("os_release_unavailable", zap.String("path", s.osReleasePath), zap.Error(err))
		return dist, nil
	}
	osr, err := ParseOSRelease(release)
	if err != nil {
		return models.Distribution{}, fmt.Errorf("failed to parse %s: %w", s.osReleasePath, err)
	}
	dist.LinuxCodename = osr.Codename
	if dist.LinuxDistribution == "" {
		dist.LinuxDistribution = osr.Name
	}
	if dist.LinuxVersion == "" {
		dist.LinuxVersion = osr.VersionID
	}
	return dist, nil
}

// architecture formats the word size and executable format of this binary,
// e.g. "64bit,ELF".
func architecture(goos string, bits int) string {
	linkage := "ELF"
	switch goos {
	case "darwin", "ios":
		linkage = "Mach-O"
	case "windows":
		linkage = "WindowsPE"
	case "plan9":
		linkage = "a.out"
	}
	return strconv.Itoa(bits) + "bit," + linkage
}
