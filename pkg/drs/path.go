// Package drs derives canonical Data Reference Syntax paths and filenames
// from a file's descriptive metadata. Everything here is a pure function
// of the metadata: where the file physically sits today never matters.
package drs

import (
	"fmt"
	"path"
	"strings"

	"github.com/primdata/dmt/pkg/cftime"
	"github.com/primdata/dmt/pkg/db/models"
)

var ErrUnsupportedFrequency = fmt.Errorf("unsupported frequency")

// ConstructPath returns the canonical DRS directory path for a file,
// relative to a workspace root chosen by the caller.
func ConstructPath(file *models.DataFile) string {
	return path.Join(
		file.Project.ShortName,
		file.ActivityID.ShortName,
		file.Institute.ShortName,
		file.ClimateModel.ShortName,
		file.Experiment.ShortName,
		file.RipCode,
		file.VariableRequest.TableName,
		file.VariableRequest.DRSVariableName(),
		file.Grid,
		file.Version,
	)
}

// ConstructFilename returns the standardised filename for a file. The
// trailing time range is omitted for time-invariant (fx) fields.
func ConstructFilename(file *models.DataFile) (string, error) {
	parts := []string{
		file.VariableRequest.DRSVariableName(),
		file.VariableRequest.TableName,
		file.ClimateModel.ShortName,
		file.Experiment.ShortName,
		file.RipCode,
		file.Grid,
	}

	if file.Frequency != models.FreqFx {
		if file.StartTime == nil || file.EndTime == nil {
			return "", fmt.Errorf("cannot construct filename for %s: "+
				"frequency %q requires a start and end time",
				file.Name, file.Frequency)
		}

		start, err := ConstructTimeString(*file.StartTime, file.TimeUnits,
			cftime.Calendar(file.Calendar), file.Frequency)
		if err != nil {
			return "", err
		}
		end, err := ConstructTimeString(*file.EndTime, file.TimeUnits,
			cftime.Calendar(file.Calendar), file.Frequency)
		if err != nil {
			return "", err
		}

		parts = append(parts, fmt.Sprintf("%s-%s", start, end))
	}

	return strings.Join(parts, "_") + ".nc", nil
}

// ConstructTimeString formats a numeric time value with the precision
// implied by the file's frequency.
func ConstructTimeString(value float64, units string, cal cftime.Calendar, frequency string) (string, error) {
	dt, err := cftime.NumberToDate(value, units, cal)
	if err != nil {
		return "", err
	}

	switch frequency {
	case models.FreqAnn:
		return fmt.Sprintf("%04d", dt.Year), nil
	case models.FreqMon:
		return fmt.Sprintf("%04d%02d", dt.Year, dt.Month), nil
	case models.FreqDay:
		return fmt.Sprintf("%04d%02d%02d", dt.Year, dt.Month, dt.Day), nil
	case models.Freq6Hr, models.Freq3Hr, models.Freq1Hr:
		return fmt.Sprintf("%04d%02d%02d%02d%02d",
			dt.Year, dt.Month, dt.Day, dt.Hour, dt.Minute), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFrequency, frequency)
	}
}

// ConstructCylcTaskName names the cylc workflow task that processes one
// data request.
func ConstructCylcTaskName(dreq *models.DataRequest, prefix string) string {
	return strings.Join([]string{
		prefix,
		dreq.ClimateModel.ShortName,
		dreq.Experiment.ShortName,
		dreq.RipCode,
		dreq.VariableRequest.TableName,
		dreq.VariableRequest.CmorName,
	}, "_")
}

// FurtherInfoURL rebuilds the ES-DOC further-info URL for a file from its
// identity tuple.
func FurtherInfoURL(file *models.DataFile) string {
	return fmt.Sprintf("https://furtherinfo.es-doc.org/%s.%s.%s.%s.none.%s",
		file.Project.ShortName,
		file.Institute.ShortName,
		file.ClimateModel.ShortName,
		file.Experiment.ShortName,
		file.RipCode,
	)
}
