package xlsx

// DefaultMaxLocations caps the locations reported per error code.
const DefaultMaxLocations = 20

// ErrorCodes are the formula error values Scan looks for, in report order.
var ErrorCodes = []string{"#VALUE!", "#DIV/0!", "#REF!", "#NAME?", "#NULL!", "#NUM!", "#N/A"}

// Report statuses.
const (
	StatusSuccess     = "success"
	StatusErrorsFound = "errors_found"
)

// ErrorSummary is the count and locations of one error code.
type ErrorSummary struct {
	Count     int      `json:"count"`
	Locations []string `json:"locations"`
}

// Report is the outcome of a workbook scan.
type Report struct {
	Status        string                   `json:"status"`
	TotalErrors   int                      `json:"total_errors"`
	TotalFormulas int                      `json:"total_formulas"`
	ErrorSummary  map[string]*ErrorSummary `json:"error_summary"`
}

// ScanOptions controls Scan.
type ScanOptions struct {
	// MaxLocations caps the locations listed per error code. Counts stay
	// exact. Zero means DefaultMaxLocations, negative means no cap.
	MaxLocations int
}

// Scan opens the workbook at path and reports every cell whose cached
// value is a formula error, along with the number of formula cells.
func Scan(path string, opts ScanOptions) (*Report, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Scan(opts), nil
}

// Scan reports the formula errors in the open workbook.
func (r *Reader) Scan(opts ScanOptions) *Report {
	limit := opts.MaxLocations
	if limit == 0 {
		limit = DefaultMaxLocations
	}

	rep := &Report{ErrorSummary: make(map[string]*ErrorSummary)}
	for _, sheet := range r.sheets {
		for _, row := range sheet.Rows {
			for i := range row {
				cell := &row[i]
				if cell.HasFormula {
					rep.TotalFormulas++
				}

				code := cell.ErrorCode()
				if code == "" {
					continue
				}
				rep.TotalErrors++
				sum := rep.ErrorSummary[code]
				if sum == nil {
					sum = &ErrorSummary{Locations: []string{}}
					rep.ErrorSummary[code] = sum
				}
				sum.Count++
				if limit < 0 || len(sum.Locations) < limit {
					sum.Locations = append(sum.Locations, sheet.Location(cell))
				}
			}
		}
	}

	rep.Status = StatusSuccess
	if rep.TotalErrors > 0 {
		rep.Status = StatusErrorsFound
	}
	return rep
}
