package errcode

import (
	"github.com/gnames/gn"
)

const (
	UnknownError gn.ErrorCode = iota

	// File System errors
	CreateDirError
	CopyFileError
	ReadFileError
	RemoveError

	// Logging errors
	CreateLogFileError

	// Registry errors
	RegistryReadError
	RegistryDayError
	RegistryContinuumError

	// External tool errors
	ToolMissingError
	ToolRunError

	// Find errors
	FindQueryError
	FindLoginError
	FindCredentialsError

	// Load errors
	LoadConvertError
	LoadSplitError
	LoadBackupError

	// Process errors
	ProcessFlagError
	ProcessCalibrateError
	ProcessImageError
	ProcessStatsError

	// Analyse errors
	AnalyseSourceFindError
	AnalyseCubeError
	AnalyseSpectrumError

	// Aggregate errors
	AggregateScanError
	AggregateCatalogueError

	// Decompose errors
	DecomposeReadError
	DecomposeFitError

	// Examine errors
	ExamineReadError
	ExamineCatalogueError

	// Clean errors
	CleanRemoveError
	CleanRestoreError
)
