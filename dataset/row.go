// Package dataset 读取歌单/曲目 CSV（Spotify 歌曲数据集格式）。
//
// 列按表头名称解析，列顺序不限，多余列忽略；缺少必需列时返回 INVALID_INPUT。
package dataset

// AudioFeatureNames 是曲目音频特征列，顺序即特征矩阵的列顺序。
var AudioFeatureNames = [NumAudioFeatures]string{
	"danceability",
	"energy",
	"key",
	"loudness",
	"mode",
	"speechiness",
	"acousticness",
	"instrumentalness",
	"liveness",
	"valence",
	"tempo",
	"duration_ms",
}

// NumAudioFeatures 是特征维度。
const NumAudioFeatures = 12

// 元数据列名。
const (
	ColTrackID          = "track_id"
	ColTrackName        = "track_name"
	ColTrackArtist      = "track_artist"
	ColTrackPopularity  = "track_popularity"
	ColTrackAlbumID     = "track_album_id"
	ColTrackAlbumName   = "track_album_name"
	ColTrackReleaseDate = "track_album_release_date"
	ColPlaylistName     = "playlist_name"
	ColPlaylistID       = "playlist_id"
	ColPlaylistGenre    = "playlist_genre"
	ColPlaylistSubgenre = "playlist_subgenre"
)

// RequiredColumns 返回全部必需列（元数据列 + 12 个音频特征列）。
func RequiredColumns() []string {
	cols := []string{
		ColTrackID, ColTrackName, ColTrackArtist, ColTrackPopularity,
		ColTrackAlbumID, ColTrackAlbumName, ColTrackReleaseDate,
		ColPlaylistName, ColPlaylistID, ColPlaylistGenre, ColPlaylistSubgenre,
	}
	return append(cols, AudioFeatureNames[:]...)
}

// Row 是 CSV 中的一行：一首曲目出现在一个歌单中。
type Row struct {
	Line int // CSV 行号（表头为第 1 行）

	TrackID          string
	TrackName        string
	TrackArtist      string
	TrackPopularity  int
	TrackAlbumID     string
	TrackAlbumName   string
	TrackReleaseDate string

	PlaylistName     string
	PlaylistID       string
	PlaylistGenre    string
	PlaylistSubgenre string

	// Audio 按 AudioFeatureNames 顺序存放
	Audio [NumAudioFeatures]float64
}

// Stats 记录一次读取的统计。
type Stats struct {
	Rows      int // 成功读取的行
	Malformed int // 因数值无法解析而丢弃的行（仅 WithSkipMalformed 时）
}
