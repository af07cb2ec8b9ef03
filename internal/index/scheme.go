package index

var (
	bMeta    = []byte("meta")     // permalink -> metaBytes
	bIdxDate = []byte("idx_date") // invTime key -> permalink 游标即降序
	bIdxCat  = []byte("idx_cat")  // category -> sub-bucket
)
