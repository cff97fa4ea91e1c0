package core

import "strings"

const (
	DefaultExpenseCategory = "Lainnya"
	DefaultSubject         = "Lainnya"
	// UnknownLevel labels a missing or unrecognized comprehension level.
	UnknownLevel = "Tidak Diketahui"
)

var (
	ExpenseCategories = []string{
		"Makanan",
		"Transportasi",
		"Belanja",
		"Tagihan",
		"Hiburan",
		"Kesehatan",
		"Pendidikan",
		"Lainnya",
	}

	Subjects = []string{
		"Teknik Digital",
		"Sistem Tertanam",
		"Bahasa Inggris",
		"Kewarganegaraan",
		"Sistem Basis Data II",
		"Kecerdasan Buatan",
		"Pemrograman Berorientasi Objek",
		"Jaringan Komputer I",
		"Statistika",
		"Lainnya",
	}

	// ComprehensionLevels are ordered from lowest to highest.
	ComprehensionLevels = []string{"Rendah", "Sedang", "Tinggi", "Sangat Tinggi"}
)

// NormalizeCategory maps s onto ExpenseCategories, falling back to DefaultExpenseCategory.
func NormalizeCategory(s string) string {
	return pick(s, ExpenseCategories, DefaultExpenseCategory)
}

// NormalizeSubject maps s onto Subjects, falling back to DefaultSubject.
func NormalizeSubject(s string) string {
	return pick(s, Subjects, DefaultSubject)
}

// NormalizeComprehension maps s onto ComprehensionLevels, falling back to UnknownLevel.
func NormalizeComprehension(s string) string {
	return pick(s, ComprehensionLevels, UnknownLevel)
}

func pick(s string, allowed []string, fallback string) string {
	s = strings.TrimSpace(s)
	for _, v := range allowed {
		if strings.EqualFold(v, s) {
			return v
		}
	}
	return fallback
}
