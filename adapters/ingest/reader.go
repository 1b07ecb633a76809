package ingest

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"conflictlens/domain/core"
	"conflictlens/domain/panel"
)

// Required dataset columns, by source header name.
const (
	colGroupID       = "gwgroupid"
	colCountryID     = "countries_gwid"
	colYear          = "year"
	colStatusName    = "statusname"
	colPowerRank     = "status_pwrrank"
	colUpgraded      = "upgraded10"
	colGeoConc       = "geo_concentrated"
	colIncidence     = "incidence_flag"
	colIncidenceTerr = "incidence_terr_flag"
	colIncidenceGov  = "incidence_gov_flag"
)

var requiredColumns = []string{
	colGroupID, colCountryID, colYear, colPowerRank,
	colUpgraded, colGeoConc, colIncidence, colIncidenceTerr, colIncidenceGov,
}

// DataReader handles reading the panel dataset from Excel and CSV files
type DataReader struct {
	filePath  string
	fileType  string // "xlsx" or "csv"
	threshold int    // power rank at or below which a group is excluded
}

// NewDataReader creates a new data reader that handles both Excel and CSV
// files. The threshold is the power rank at or below which a loaded group
// counts as politically excluded.
func NewDataReader(filePath string, excludedThreshold int) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "csv"
	if ext == ".xlsx" || ext == ".xlsm" {
		fileType = "xlsx"
	}
	return &DataReader{filePath: filePath, fileType: fileType, threshold: excludedThreshold}
}

// Read loads the dataset, derives the exclusion and conflict indicators,
// and returns the sealed panel.
func (r *DataReader) Read() (*panel.Dataset, error) {
	log.Printf("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, core.NewLoadError(r.filePath, core.ErrDatasetNotFound)
	}

	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, core.NewLoadError(r.filePath, err)
	}

	if len(rows) < 2 {
		return nil, core.NewLoadError(r.filePath, fmt.Errorf("file must have a header row and at least one data row"))
	}

	return r.processRows(rows)
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	log.Printf("[DataReader] CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	readStart := time.Now()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		return nil, fmt.Errorf("failed to read Sheet1: %w", err)
	}
	log.Printf("[DataReader] Sheet1 read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return rows, nil
}

// processRows converts raw string rows into the observation panel
func (r *DataReader) processRows(rows [][]string) (*panel.Dataset, error) {
	headers := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		headers[strings.ToLower(strings.TrimSpace(header))] = i
	}

	for _, col := range requiredColumns {
		if _, ok := headers[col]; !ok {
			return nil, core.NewColumnError(col)
		}
	}

	missing := map[string]int{}
	observations := make([]panel.Observation, 0, len(rows)-1)

	for i, row := range rows[1:] {
		line := i + 2 // 1-based, after header

		obs, err := parseObservation(row, headers, missing, line)
		if err != nil {
			return nil, core.NewLoadError(r.filePath, err)
		}
		observations = append(observations, obs)
	}

	dataset, err := panel.NewDatasetWithThreshold(observations, missing, r.threshold)
	if err != nil {
		return nil, core.NewLoadError(r.filePath, err)
	}

	log.Printf("[DataReader] Loaded %d observations (%d excluded-group rows)", dataset.Len(), dataset.ExcludedCount())
	for col, n := range missing {
		log.Printf("[DataReader] Missing values in %s: %d", col, n)
	}
	return dataset, nil
}

func parseObservation(row []string, headers map[string]int, missing map[string]int, line int) (panel.Observation, error) {
	cell := func(col string) string {
		idx := headers[col]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	year, err := strconv.Atoi(cell(colYear))
	if err != nil {
		return panel.Observation{}, core.NewRowError(line, fmt.Sprintf("invalid year %q", cell(colYear)))
	}

	status, err := parseStatus(cell(colPowerRank), cell(colStatusName), headers)
	if err != nil {
		return panel.Observation{}, core.NewRowError(line, err.Error())
	}

	obs := panel.Observation{
		GroupID:               cell(colGroupID),
		CountryID:             cell(colCountryID),
		Year:                  year,
		Status:                status,
		GeoConcentrated:       parseFlag(cell(colGeoConc), colGeoConc, missing),
		Upgraded:              parseFlag(cell(colUpgraded), colUpgraded, missing),
		IncidenceAny:          parseIncidence(cell(colIncidence), colIncidence, missing),
		IncidenceTerritorial:  parseIncidence(cell(colIncidenceTerr), colIncidenceTerr, missing),
		IncidenceGovernmental: parseIncidence(cell(colIncidenceGov), colIncidenceGov, missing),
	}

	if obs.GroupID == "" || obs.CountryID == "" {
		return panel.Observation{}, core.NewRowError(line, "missing group or country identifier")
	}
	return obs, nil
}

// parseStatus resolves the political status, preferring the numeric power
// rank and falling back to the status label. Status is never optional: the
// exclusion indicator is derived from it.
func parseStatus(rankCell, nameCell string, headers map[string]int) (panel.StatusCategory, error) {
	if rankCell != "" {
		rank, err := strconv.ParseFloat(rankCell, 64)
		if err != nil {
			return panel.StatusUnknown, fmt.Errorf("invalid power rank %q", rankCell)
		}
		return panel.StatusFromRank(int(rank))
	}
	if _, hasName := headers[colStatusName]; hasName && nameCell != "" {
		return panel.ParseStatus(nameCell)
	}
	return panel.StatusUnknown, fmt.Errorf("observation has no political status")
}

// parseFlag parses a 0/1 moderator cell; empty or unparseable cells become
// nil and are counted as missing.
func parseFlag(value, col string, missing map[string]int) *bool {
	if value == "" {
		missing[col]++
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		missing[col]++
		return nil
	}
	b := f != 0
	return &b
}

// parseIncidence parses a conflict incidence cell. Missing cells count as
// no recorded conflict, matching the source convention.
func parseIncidence(value, col string, missing map[string]int) bool {
	if value == "" {
		missing[col]++
		return false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		missing[col]++
		return false
	}
	return f == 1
}
