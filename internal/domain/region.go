package domain

// Point — вершина bounding polygon в пикселях: [x, y].
type Point [2]int

// Region — один распознанный фрагмент текста.
//
// При Detail = 0 движок не отдаёт геометрию: BBox пустой, Confidence = 0.
type Region struct {
	// BBox — четырёхугольник [[x1,y1],[x2,y2],[x3,y3],[x4,y4]] по часовой стрелке от левого верхнего угла.
	BBox []Point `json:"bbox"`

	// Text — распознанный текст.
	Text string `json:"text"`

	// Confidence — уверенность движка, 0.0..1.0.
	Confidence float64 `json:"confidence"`
}

// TextOnly приводит регион к контракту detail=0.
func (r Region) TextOnly() Region {
	return Region{BBox: []Point{}, Text: r.Text}
}

// Texts возвращает только тексты регионов в исходном порядке.
func Texts(regions []Region) []string {
	out := make([]string, len(regions))
	for i, r := range regions {
		out[i] = r.Text
	}
	return out
}
