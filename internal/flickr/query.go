package flickr

import (
	"net/url"
	"sort"
	"strings"
)

const (
	MethodPhotosSearch   = "flickr.photos.search"
	MethodPoolsGetPhotos = "flickr.groups.pools.getPhotos"
)

// Query is one Flickr REST call: the method plus its operation fields.
// The client adds api_key, format and nojsoncallback.
type Query struct {
	Method string
	Params map[string]string
}

// SearchByMachineTag builds a flickr.photos.search for a machine tag such as
// "pleiades:*=149492".
func SearchByMachineTag(tag string) Query {
	return Query{
		Method: MethodPhotosSearch,
		Params: map[string]string{"machine_tags": tag},
	}
}

// PoolPhotos builds a flickr.groups.pools.getPhotos for groupID. An empty
// tag lists the whole pool.
func PoolPhotos(groupID, tag string, extras ...string) Query {
	p := map[string]string{"group_id": groupID}
	if tag != "" {
		p["tags"] = tag
	}
	if len(extras) > 0 {
		p["extras"] = strings.Join(extras, ",")
	}
	return Query{Method: MethodPoolsGetPhotos, Params: p}
}

// Values encodes q with the fixed parameters every call carries.
func (q Query) Values(apiKey string) url.Values {
	v := url.Values{}
	for k, val := range q.Params {
		v.Set(k, val)
	}
	v.Set("method", q.Method)
	v.Set("api_key", apiKey)
	v.Set("format", "json")
	v.Set("nojsoncallback", "1")
	return v
}

// String is a stable, key-free rendering for logs.
func (q Query) String() string {
	keys := make([]string, 0, len(q.Params))
	for k := range q.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(q.Method)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(q.Params[k])
	}
	return b.String()
}
