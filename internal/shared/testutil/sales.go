package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jk4088/NYHousing-Bayesian-Modeling/internal/config"
	"github.com/jk4088/NYHousing-Bayesian-Modeling/pkg/contracts/domain"
)

// SalesHeader is the header row of a rolling sales CSV export
const SalesHeader = "BOROUGH,NEIGHBORHOOD,BUILDING CLASS CATEGORY,ADDRESS,APARTMENT NUMBER,ZIP CODE," +
	"RESIDENTIAL UNITS,COMMERCIAL UNITS,TOTAL UNITS,LAND SQUARE FEET,GROSS SQUARE FEET,YEAR BUILT," +
	"BUILDING CLASS AT TIME OF SALE,SALE PRICE,SALE DATE"

// WriteSalesFiles writes one CSV per borough into dir, named with the default
// file pattern
func WriteSalesFiles(t *testing.T, dir string, sales map[domain.Borough][]string) {
	t.Helper()
	for b, rows := range sales {
		name := filepath.Join(dir, fmt.Sprintf(config.DefaultFilePattern, config.BoroughSlug(b)))
		content := SalesHeader + "\n" + strings.Join(rows, "\n") + "\n"
		require.NoError(t, os.WriteFile(name, []byte(content), 0644))
	}
}

// GeneratedSales returns perBorough one- and two-family sales for every
// borough with prices rising by borough and by size
func GeneratedSales(perBorough int) map[domain.Borough][]string {
	sales := make(map[domain.Borough][]string, len(domain.Boroughs))
	for i, b := range domain.Boroughs {
		for j := 0; j < perBorough; j++ {
			units := j%2 + 1
			class := [...]string{"A1", "B1"}[j%2]
			sales[b] = append(sales[b], fmt.Sprintf(
				`%d,NEIGHBORHOOD %d,0%d FAMILY,%d MAIN ST, ,10001,%d,0,%d,"%d","%d",%d,%s,"$%d",03/14/18`,
				b.Code(), j, units, 10+j, units, units,
				2000+400*j, 1800+350*((3*j)%5), 1920+7*((5*j)%9), class, 400000+150000*j+100000*i))
		}
	}
	return sales
}
