package stream

import (
	"fmt"
	"io"

	"github.com/arloliu/mdtable/errs"
	"github.com/arloliu/mdtable/format"
	"github.com/arloliu/mdtable/internal/options"
	"github.com/arloliu/mdtable/section"
	"github.com/sirupsen/logrus"
)

// BuilderConfig holds the settings of a Builder.
type BuilderConfig struct {
	// Version is the runtime version string of the metadata root.
	Version string
	// MajorVersion and MinorVersion are the metadata root version.
	MajorVersion uint16
	MinorVersion uint16
	// SortTables sorts every sortable table before layout.
	SortTables bool
	// Unoptimized emits a "#-" stream with pointer tables instead of "#~".
	Unoptimized bool
	// PassThrough streams are copied after the heaps, in order.
	PassThrough []PassThrough
	// SchemaMajor and SchemaMinor override the tables' schema version when set.
	SchemaMajor    uint8
	SchemaMinor    uint8
	schemaOverride bool

	Logger logrus.FieldLogger
}

// BuilderOption configures a Builder.
type BuilderOption = options.Option[*BuilderConfig]

func defaultBuilderConfig() *BuilderConfig {
	return &BuilderConfig{
		Version:      format.DefaultVersionString,
		MajorVersion: format.DefaultMajorVersion,
		MinorVersion: format.DefaultMinorVersion,
		Logger:       discardLogger(),
	}
}

// WithVersionString sets the runtime version string of the metadata root.
func WithVersionString(version string) BuilderOption {
	return options.New(func(c *BuilderConfig) error {
		if len(version)+1 > section.MaxVersionLength {
			return fmt.Errorf("%w: version string of %d bytes", errs.ErrInvalidOption, len(version))
		}
		c.Version = version

		return nil
	})
}

// WithRootVersion sets the metadata root major and minor version.
func WithRootVersion(major, minor uint16) BuilderOption {
	return options.NoError(func(c *BuilderConfig) {
		c.MajorVersion = major
		c.MinorVersion = minor
	})
}

// WithSortTables enables sorting of every sortable table during Build.
// Deferred fixups follow the rows they were registered on.
func WithSortTables(enabled bool) BuilderOption {
	return options.NoError(func(c *BuilderConfig) {
		c.SortTables = enabled
	})
}

// WithUnoptimized selects the "#-" layout: empty pointer tables are rebuilt as
// the identity and existing ones are kept. By default pointer tables are
// removed and a "#~" stream is written.
func WithUnoptimized(enabled bool) BuilderOption {
	return options.NoError(func(c *BuilderConfig) {
		c.Unoptimized = enabled
	})
}

// WithPassThrough appends a stream that is emitted verbatim after the heaps.
func WithPassThrough(name string, data []byte) BuilderOption {
	return options.New(func(c *BuilderConfig) error {
		if name == "" || len(name)+1 > section.MaxStreamNameLength {
			return fmt.Errorf("%w: stream name %q", errs.ErrInvalidOption, name)
		}
		if isKnownStream(name) {
			return fmt.Errorf("%w: stream %q is written by the builder", errs.ErrInvalidOption, name)
		}
		c.PassThrough = append(c.PassThrough, PassThrough{Name: name, Data: data})

		return nil
	})
}

// WithSchemaVersion overrides the table stream schema version.
func WithSchemaVersion(major, minor uint8) BuilderOption {
	return options.NoError(func(c *BuilderConfig) {
		c.SchemaMajor = major
		c.SchemaMinor = minor
		c.schemaOverride = true
	})
}

// WithLogger sets the logger receiving debug output about layout, sorting
// and fixups. The builder is silent by default.
func WithLogger(logger logrus.FieldLogger) BuilderOption {
	return options.New(func(c *BuilderConfig) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", errs.ErrInvalidOption)
		}
		c.Logger = logger

		return nil
	})
}

// ReadConfig holds the settings of Read.
type ReadConfig struct {
	// ValidateHeaps checks every heap column against the size of its heap.
	ValidateHeaps bool
	Logger        logrus.FieldLogger
}

// ReadOption configures Read.
type ReadOption = options.Option[*ReadConfig]

// WithHeapValidation makes Read reject heap columns that point outside their heap.
func WithHeapValidation() ReadOption {
	return options.NoError(func(c *ReadConfig) {
		c.ValidateHeaps = true
	})
}

// WithReadLogger sets the logger receiving debug output about the parsed streams.
func WithReadLogger(logger logrus.FieldLogger) ReadOption {
	return options.New(func(c *ReadConfig) error {
		if logger == nil {
			return fmt.Errorf("%w: nil logger", errs.ErrInvalidOption)
		}
		c.Logger = logger

		return nil
	})
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}

func isKnownStream(name string) bool {
	switch name {
	case format.StreamTablesOptimized, format.StreamTablesUnoptimized,
		format.StreamStrings, format.StreamUserStrings, format.StreamGUID, format.StreamBlob:
		return true
	default:
		return false
	}
}
