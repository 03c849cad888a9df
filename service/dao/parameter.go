package dao

// Parameter narrows List results; stores interpret names they understand and
// ignore the rest.
type Parameter struct {
	Name  string
	Value interface{}
}

// ParameterIDs filters listings down to the given entity ids.
const ParameterIDs = "ids"

func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// FilterByID reports whether an entity id passes the ids parameter (when
// present).
func FilterByID(id string, parameters []*Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != ParameterIDs {
			continue
		}
		switch value := parameter.Value.(type) {
		case string:
			return value == id
		case []string:
			for _, candidate := range value {
				if candidate == id {
					return true
				}
			}
			return false
		}
	}
	return true
}
