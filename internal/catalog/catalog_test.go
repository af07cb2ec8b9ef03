package catalog

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gambit/internal/domain/content"
	domainerr "gambit/internal/domain/errors"
)

func post(title, date string, cats ...string) content.Post {
	var d time.Time
	if date != "" {
		var err error
		d, err = time.ParseInLocation(time.DateOnly, date, time.Local)
		if err != nil {
			panic(err)
		}
	}
	return content.Post{
		Meta: content.PostMeta{
			Title:      title,
			Slug:       slugOf(title),
			Date:       d,
			Categories: cats,
			Layout:     content.LayoutPost,
		},
		Body: content.BodyRef{SourcePath: "content/" + slugOf(title) + ".md"},
	}
}

func slugOf(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		default:
			if len(out) > 0 && out[len(out)-1] != '-' {
				out = append(out, '-')
			}
		}
	}
	return string(out)
}

func TestBuild_ReverseChronological(t *testing.T) {
	ix, warns, err := Build([]content.Post{
		post("Why I Play Chess", "2022-06-03", "chess"),
		post("Creating a new blog with Jekyll", "2022-08-20", "programming"),
	})
	require.NoError(t, err)
	assert.Empty(t, warns)

	all := ix.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Creating a new blog with Jekyll", all[0].Meta.Title)
	assert.Equal(t, "Why I Play Chess", all[1].Meta.Title)
	assert.Equal(t, "/2022/08/20/creating-a-new-blog-with-jekyll/", all[0].Meta.Permalink)
	assert.Equal(t, "/2022/06/03/why-i-play-chess/", all[1].Meta.Permalink)
}

func TestBuild_StableTieBreak(t *testing.T) {
	a := post("First Written", "2023-01-01")
	b := post("Second Written", "2023-01-01")
	c := post("Newer", "2023-02-01")

	ix, _, err := Build([]content.Post{a, b, c})
	require.NoError(t, err)

	all := ix.All()
	require.Len(t, all, 3)
	assert.Equal(t, "Newer", all[0].Meta.Title)
	// 同一天的两篇保持输入顺序
	assert.Equal(t, "First Written", all[1].Meta.Title)
	assert.Equal(t, "Second Written", all[2].Meta.Title)
}

func TestBuild_PermutationDeterminism(t *testing.T) {
	base := []content.Post{
		post("A", "2020-01-01", "go"),
		post("B", "2021-05-05", "go", "chess"),
		post("C", "2022-09-09"),
		post("D", "2019-12-31", "chess"),
		post("E", "2023-03-03", "life"),
	}
	want, _, err := Build(base)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]content.Post, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got, _, err := Build(shuffled)
		require.NoError(t, err)
		assert.Equal(t, want.All(), got.All(), "permutation %d", i)
	}
}

func TestBuild_DuplicatePermalinkFatal(t *testing.T) {
	a := post("Chess", "2022-06-03")
	a.Meta.Layout = content.LayoutPage
	a.Body.SourcePath = "content/chess-v1.md"
	b := post("Chess", "2022-08-20")
	b.Meta.Layout = content.LayoutPage
	b.Body.SourcePath = "content/chess-v2.md"

	ix, _, err := Build([]content.Post{a, b})
	require.Error(t, err)
	assert.Nil(t, ix)
	assert.True(t, errors.Is(err, domainerr.ErrDuplicatePermalink))

	var conflict *domainerr.PermalinkConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "/chess/", conflict.Permalink)
	assert.Equal(t, "content/chess-v1.md", conflict.FirstPath)
	assert.Equal(t, "content/chess-v2.md", conflict.OtherPath)
}

func TestBuild_ExplicitPermalinkAvoidsCollision(t *testing.T) {
	a := post("Chess", "2022-06-03")
	a.Meta.Layout = content.LayoutPage
	b := post("Chess", "2022-08-20")
	b.Meta.Layout = content.LayoutPage
	b.Meta.Permalink = "/chess-revisited/"
	b.Body.SourcePath = "content/chess-2.md"

	ix, _, err := Build([]content.Post{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
}

func TestBuild_MissingDateSkippedWithWarning(t *testing.T) {
	ok := post("Dated", "2022-01-01")
	undated := post("Undated", "")

	ix, warns, err := Build([]content.Post{ok, undated})
	require.NoError(t, err)
	require.Len(t, warns, 1)
	assert.Equal(t, domainerr.KindMissingRequiredField, warns[0].Kind)
	assert.Equal(t, undated.Body.SourcePath, warns[0].SourcePath)

	require.Equal(t, 1, ix.Len())
	assert.Equal(t, "Dated", ix.All()[0].Meta.Title)
}

func TestBuild_MissingTitleSkippedWithWarning(t *testing.T) {
	p := post("", "2022-01-01")
	p.Meta.Slug = "untitled"
	p.Body.SourcePath = "content/untitled.md"

	ix, warns, err := Build([]content.Post{p})
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
	require.Len(t, warns, 1)
	assert.Equal(t, domainerr.KindMissingRequiredField, warns[0].Kind)
}

func TestRecent_PrefixProperty(t *testing.T) {
	ix, _, err := Build([]content.Post{
		post("One", "2022-01-01"),
		post("Two", "2022-02-02"),
	})
	require.NoError(t, err)

	collect := func(n int) []string {
		var titles []string
		for p := range ix.Recent(n) {
			titles = append(titles, p.Meta.Title)
		}
		return titles
	}

	// n 大于篇数时封顶，不报错
	assert.Equal(t, []string{"Two", "One"}, collect(3))
	assert.Equal(t, []string{"Two"}, collect(1))
	assert.Empty(t, collect(0))
	assert.Empty(t, collect(-5))

	for n := 0; n <= 4; n++ {
		got := collect(n)
		want := len(got)
		if n < ix.Len() {
			assert.Equal(t, n, want)
		} else {
			assert.Equal(t, ix.Len(), want)
		}
		for i, title := range got {
			assert.Equal(t, ix.All()[i].Meta.Title, title)
		}
	}
}

func TestRecent_Restartable(t *testing.T) {
	ix, _, err := Build([]content.Post{
		post("One", "2022-01-01"),
		post("Two", "2022-02-02"),
		post("Three", "2022-03-03"),
	})
	require.NoError(t, err)

	seq := ix.Recent(2)
	var first, second []string
	for p := range seq {
		first = append(first, p.Meta.Title)
		break // 提前退出
	}
	for p := range seq {
		second = append(second, p.Meta.Title)
	}
	assert.Equal(t, []string{"Three"}, first)
	assert.Equal(t, []string{"Three", "Two"}, second)
}

func TestCategoryIndex(t *testing.T) {
	ix, _, err := Build([]content.Post{
		post("A", "2020-01-01", "go"),
		post("B", "2021-01-01", "go", "chess"),
		post("C", "2022-01-01", "chess"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"chess", "go"}, ix.Categories())

	chess := ix.ByCategory("chess")
	require.Len(t, chess, 2)
	assert.Equal(t, "C", chess[0].Meta.Title)
	assert.Equal(t, "B", chess[1].Meta.Title)

	goPosts := ix.ByCategory("go")
	require.Len(t, goPosts, 2)
	assert.Equal(t, "B", goPosts[0].Meta.Title)
	assert.Equal(t, "A", goPosts[1].Meta.Title)

	assert.Nil(t, ix.ByCategory("missing"))
}

func TestCategoryIndex_DuplicateCategoryOnPost(t *testing.T) {
	p := post("A", "2020-01-01", "chess", "Chess", " chess ")
	ix, _, err := Build([]content.Post{p})
	require.NoError(t, err)

	// 同一篇里重复写的分类只进一次
	got := ix.ByCategory("chess")
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Meta.Title)
}

func TestBuild_Idempotent(t *testing.T) {
	posts := []content.Post{
		post("A", "2020-01-01", "go"),
		post("B", "2021-01-01", "chess"),
	}
	first, warns1, err := Build(posts)
	require.NoError(t, err)
	second, warns2, err := Build(posts)
	require.NoError(t, err)

	assert.Equal(t, first.All(), second.All())
	assert.Equal(t, first.Categories(), second.Categories())
	assert.Equal(t, warns1, warns2)
}

func TestLookup(t *testing.T) {
	ix, _, err := Build([]content.Post{post("Why I Play Chess", "2022-06-03", "chess")})
	require.NoError(t, err)

	p, ok := ix.Lookup("/2022/06/03/why-i-play-chess/")
	require.True(t, ok)
	assert.Equal(t, "Why I Play Chess", p.Meta.Title)

	_, ok = ix.Lookup("/nope/")
	assert.False(t, ok)
}
