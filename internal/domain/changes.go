package domain

// Changes — набор изменений, сохраняемый в аудит в виде JSON-объекта.
type Changes map[string]any

func (c Changes) track(field string, was, now any) {
	if was != now {
		c[field] = [2]any{was, now}
	}
}

func (c Changes) Empty() bool {
	return len(c) == 0
}
