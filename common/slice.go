package common

func ContainString(sl []string, v string) (int, bool) {
	for index, vv := range sl {
		if vv == v {
			return index, true
		}
	}
	return 0, false
}

func AddIfNotContain(sl []string, v string) ([]string, bool) {
	if v == "" {
		return sl, false
	}
	if _, ok := ContainString(sl, v); !ok {
		sl = append(sl, v)
		return sl, true
	}
	return sl, false
}
