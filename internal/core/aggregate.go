package core

import (
	"fmt"
	"sort"
	"time"
)

// NoDataLabel names the placeholder bucket emitted when there are no
// expenses to chart, so the pie renders a ring instead of collapsing.
const NoDataLabel = "Sem dados"

// MonthWindow is how many trailing calendar months the dashboard charts.
const MonthWindow = 6

type (
	// MonthBucket is one aggregated chart point for a calendar month.
	MonthBucket struct {
		Year    int
		Month   time.Month
		Label   string
		Income  Cents
		Expense Cents
		Balance Cents
	}

	// CategoryBucket is one aggregated chart point for an expense category.
	CategoryBucket struct {
		Name  string
		Value Cents
	}
)

var ptMonths = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

func monthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s/%02d", ptMonths[month-1], year%100)
}

// MonthlyBuckets groups transactions into the trailing MonthWindow
// calendar months ending at now's month, oldest first. Every month in the
// window is present even when nothing falls in it; transactions outside
// the window are ignored.
func MonthlyBuckets(txs []Transaction, now time.Time) []MonthBucket {
	buckets := make([]MonthBucket, 0, MonthWindow)
	index := make(map[[2]int]int, MonthWindow)
	for i := MonthWindow - 1; i >= 0; i-- {
		d := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		index[[2]int{d.Year(), int(d.Month())}] = len(buckets)
		buckets = append(buckets, MonthBucket{
			Year:  d.Year(),
			Month: d.Month(),
			Label: monthLabel(d.Year(), d.Month()),
		})
	}
	for _, t := range txs {
		at, ok := index[[2]int{t.Date.Year(), int(t.Date.Month())}]
		if !ok {
			continue
		}
		switch t.Type {
		case Income:
			buckets[at].Income += t.Amount
		case Expense:
			buckets[at].Expense += t.Amount
		}
	}
	for i := range buckets {
		buckets[i].Balance = buckets[i].Income - buckets[i].Expense
	}
	return buckets
}

// CategoryBuckets sums absolute expense amounts per category, sorted
// descending by amount (ties broken by name, so output is deterministic).
// An empty transaction list yields exactly one sentinel bucket of value 1.
func CategoryBuckets(txs []Transaction) []CategoryBucket {
	if len(txs) == 0 {
		return []CategoryBucket{{Name: NoDataLabel, Value: 1}}
	}
	byCat := make(map[string]Cents)
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		byCat[t.Category] += t.Amount.Abs()
	}
	buckets := make([]CategoryBucket, 0, len(byCat))
	for name, value := range byCat {
		buckets = append(buckets, CategoryBucket{Name: name, Value: value})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Value != buckets[j].Value {
			return buckets[i].Value > buckets[j].Value
		}
		return buckets[i].Name < buckets[j].Name
	})
	return buckets
}
