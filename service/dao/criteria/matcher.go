package criteria

import (
	"github.com/viant/tickos/service/dao"
)

// FilterByID reports whether id satisfies every "ID" parameter. Parameters
// with other names are ignored.
func FilterByID(id string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != "ID" {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if id != actual {
				return false
			}
		case []string:
			matched := false
			for _, candidate := range actual {
				if id == candidate {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		}
	}
	return true
}
