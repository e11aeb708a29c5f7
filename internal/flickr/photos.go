package flickr

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Photo is one record of a photo list. Flickr sends views and farm as
// either numbers or numeric strings depending on the method.
type Photo struct {
	ID        string  `json:"id"`
	Owner     string  `json:"owner"`
	OwnerName string  `json:"ownername"`
	Secret    string  `json:"secret"`
	Server    string  `json:"server"`
	Farm      FlexInt `json:"farm"`
	Title     string  `json:"title"`
	Views     FlexInt `json:"views"`
}

// Photos is the decoded "photos" object of a response.
type Photos struct {
	Total FlexInt `json:"total"`
	Photo []Photo `json:"photo"`
}

type envelope struct {
	Photos json.RawMessage `json:"photos"`
}

type photosObject struct {
	Total FlexInt         `json:"total"`
	Photo json.RawMessage `json:"photo"`
}

// DecodePhotos reads the photos object from a response body. Missing
// "photos" yields an empty list and a missing total yields 0. Each level is
// decoded on its own, so a malformed photo list keeps the total and a
// malformed record drops only that record. Only a body that is not JSON at
// all is an error.
func DecodePhotos(raw []byte) (Photos, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if json.Valid(raw) {
			return Photos{}, nil
		}
		return Photos{}, err
	}

	var obj photosObject
	if len(env.Photos) == 0 || json.Unmarshal(env.Photos, &obj) != nil {
		return Photos{}, nil
	}
	out := Photos{Total: obj.Total}

	var records []json.RawMessage
	if len(obj.Photo) == 0 || json.Unmarshal(obj.Photo, &records) != nil {
		return out, nil
	}
	out.Photo = make([]Photo, 0, len(records))
	for _, rec := range records {
		var p Photo
		if err := json.Unmarshal(rec, &p); err != nil {
			continue
		}
		out.Photo = append(out.Photo, p)
	}
	return out, nil
}

// checkStat reports a stat:"fail" body as an *APIError. Bodies it cannot
// read are left to DecodePhotos.
func checkStat(raw []byte) error {
	var st struct {
		Stat    string  `json:"stat"`
		Code    FlexInt `json:"code"`
		Message string  `json:"message"`
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil
	}
	if st.Stat == "fail" {
		return &APIError{Code: st.Code.Int(), Message: st.Message}
	}
	return nil
}

// FlexInt decodes a JSON number or numeric string. Anything else, and
// negative values, decode as 0.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*n = 0
			return nil
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			*n = 0
			return nil
		}
		v = int64(f)
	}
	if v < 0 {
		v = 0
	}
	*n = FlexInt(v)
	return nil
}

func (n FlexInt) Int() int { return int(n) }
