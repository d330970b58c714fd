package cert

import "strings"

// FilterOptions narrows the certificate log listing.
type FilterOptions struct {
	Categories []string
	FreeWords  string
}

// FilterRecords keeps records in one of opt.Categories (any, when empty)
// whose name, department, batch or roll number contain every free word.
func FilterRecords(records []Record, opt FilterOptions) []Record {
	out := []Record{}
	kw := strings.Fields(strings.ToLower(opt.FreeWords))
	for _, r := range records {
		if len(opt.Categories) > 0 {
			matched := false
			for _, c := range opt.Categories {
				if r.Category == c {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if len(kw) > 0 {
			hay := strings.ToLower(strings.Join([]string{r.Name, r.Department, r.Batch, r.RollNo}, " "))
			ok := true
			for _, k := range kw {
				if !strings.Contains(hay, k) {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
