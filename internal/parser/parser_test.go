package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTVEpisode(t *testing.T) {
	got := Parse("Breaking.Bad.S01E02.720p.mkv")
	assert.Equal(t, KindTV, got.Kind)
	assert.Equal(t, "Breaking Bad", got.Title)
	assert.Equal(t, 1, got.Season)
	assert.Equal(t, 2, got.Episode)
}

func TestParseMovie(t *testing.T) {
	got := Parse("The Matrix (1999).mp4")
	assert.Equal(t, KindMovie, got.Kind)
	assert.Equal(t, "The Matrix", got.Title)
	assert.Equal(t, 1999, got.Year)
}

func TestParseByParentSeasonFolder(t *testing.T) {
	got := Parse("/mnt/a/Firefly/Season 1/show.mkv")
	assert.Equal(t, KindTV, got.Kind)
	assert.Equal(t, "Firefly", got.Title)
	assert.Equal(t, 1, got.Season)
}

func TestParseNxNFormat(t *testing.T) {
	got := Parse("The Office 2x05.mkv")
	assert.Equal(t, KindTV, got.Kind)
	assert.Equal(t, "The Office", got.Title)
	assert.Equal(t, 2, got.Season)
	assert.Equal(t, 5, got.Episode)
}

func TestParseSeasonEpisodeWords(t *testing.T) {
	got := Parse("Firefly Season 1 Episode 3.mkv")
	assert.Equal(t, KindTV, got.Kind)
	assert.Equal(t, "Firefly", got.Title)
	assert.Equal(t, 1, got.Season)
	assert.Equal(t, 3, got.Episode)
}

func TestParseMovieRejectsOutOfRangeYear(t *testing.T) {
	got := Parse("Some.File.3045.mkv")
	assert.Equal(t, KindUnknown, got.Kind)
}

func TestParseUnknownFallsBackToCleanedFilename(t *testing.T) {
	got := Parse("random_home_video.mkv")
	assert.Equal(t, KindUnknown, got.Kind)
	assert.Equal(t, "Random Home Video", got.Title)
}

func TestParseUnderscoreAndDotCleanup(t *testing.T) {
	got := Parse("Some_Random.Title (2010).mp4")
	assert.Equal(t, KindMovie, got.Kind)
	assert.Equal(t, "Some Random Title", got.Title)
	assert.Equal(t, 2010, got.Year)
}

func TestIsVideoFile(t *testing.T) {
	assert.True(t, IsVideoFile(".mkv"))
	assert.True(t, IsVideoFile(".MP4"))
	assert.False(t, IsVideoFile(".txt"))
	assert.False(t, IsVideoFile(".srt"))
}
