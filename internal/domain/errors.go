package domain

import (
	"errors"
	"fmt"
)

// ErrLoadFailure is wrapped by every LoadError so callers can test for the
// whole class with errors.Is.
var ErrLoadFailure = errors.New("dataset load failure")

// Dataset names one of the three source files.
type Dataset string

const (
	DatasetYields   Dataset = "yields"
	DatasetTrends   Dataset = "trends"
	DatasetGeometry Dataset = "geometry"
)

// LoadError reports a source file that is missing, unreachable or malformed.
// Load failures are terminal: nothing is rendered and nothing is retried.
type LoadError struct {
	Dataset  Dataset
	Location string // where the file was expected
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s from %s: %v", e.Dataset, e.Location, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailure, e.Err}
}

// UserMessage is the text shown in place of the application.
func (e *LoadError) UserMessage() string {
	return fmt.Sprintf("Erreur de chargement des données (%s). Vérifiez que le fichier est disponible à l'emplacement : %s", e.Dataset, e.Location)
}

// EmptyDatasetError reports a load that succeeded but produced no rows.
type EmptyDatasetError struct {
	TrendRows int
	YieldRows int
}

func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("empty dataset: %d trend rows, %d yield rows", e.TrendRows, e.YieldRows)
}

// UserMessage distinguishes which of the two tabular files came back empty.
func (e *EmptyDatasetError) UserMessage() string {
	switch {
	case e.TrendRows == 0 && e.YieldRows == 0:
		return fmt.Sprintf("Aucune donnée chargée : aucune ligne de tendances (%d) ni de rendements (%d).", e.TrendRows, e.YieldRows)
	case e.TrendRows == 0:
		return fmt.Sprintf("Aucune ligne de tendances climatiques chargée (tendances : %d lignes, rendements : %d lignes).", e.TrendRows, e.YieldRows)
	default:
		return fmt.Sprintf("Aucune ligne de rendements chargée (tendances : %d lignes, rendements : %d lignes).", e.TrendRows, e.YieldRows)
	}
}

// UserMessage returns the user-facing text for a load-stage error.
func UserMessage(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.UserMessage()
	}
	var ee *EmptyDatasetError
	if errors.As(err, &ee) {
		return ee.UserMessage()
	}
	return "Erreur : " + err.Error()
}
