package region

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// AliasTable maps a whole token to its canonical spelling.
type AliasTable map[string]string

// DefaultAliases returns the built-in table of abbreviated and renamed
// province names.
func DefaultAliases() AliasTable {
	return AliasTable{
		"서울":   "서울시",
		"부산":   "부산시",
		"대구":   "대구시",
		"인천":   "인천시",
		"광주":   "광주시",
		"대전":   "대전시",
		"울산":   "울산시",
		"세종":   "세종시",
		"경기":   "경기도",
		"강원":   "강원도",
		"충북":   "충청북도",
		"충남":   "충청남도",
		"전북":   "전라북도",
		"전북도":  "전라북도",
		"전남":   "전라남도",
		"경북":   "경상북도",
		"경남":   "경상남도",
		"제주":   "제주도",
	}
}

// Apply replaces every whitespace-separated token found in the table.
func (a AliasTable) Apply(s string) string {
	if len(a) == 0 {
		return s
	}
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if to, ok := a[tok]; ok {
			tokens[i] = to
		}
	}
	return strings.Join(tokens, " ")
}

// Validate rejects chained aliases. A target that is itself an alias key
// would make normalization unstable.
func (a AliasTable) Validate() error {
	for from, to := range a {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return eris.Errorf("region: empty alias %q -> %q", from, to)
		}
		if strings.ContainsAny(from, " \t") {
			return eris.Errorf("region: alias %q must be a single token", from)
		}
		if suffixReplacer.Replace(to) != to {
			return eris.Errorf("region: alias target %q is not canonical", to)
		}
		for _, tok := range strings.Fields(to) {
			if _, chained := a[tok]; chained {
				return eris.Errorf("region: alias %q -> %q targets another alias %q", from, to, tok)
			}
		}
	}
	return nil
}

type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// LoadAliases reads a YAML alias file and merges it over the defaults.
// Entries in the file win. An empty path returns the defaults.
//
//	aliases:
//	  청원군: 청주시
func LoadAliases(path string) (AliasTable, error) {
	table := DefaultAliases()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path from operator config
	if err != nil {
		return nil, eris.Wrapf(err, "region: read alias file %s", path)
	}

	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "region: parse alias file %s", path)
	}

	for from, to := range f.Aliases {
		table[norm.NFC.String(strings.TrimSpace(from))] = norm.NFC.String(strings.TrimSpace(to))
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}
