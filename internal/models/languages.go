package models

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Platform struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SupportedLanguages lists the dubbing target languages exposed by the
// API. Codes follow the translation provider's two-letter convention
// with regional variants where the provider distinguishes them.
var SupportedLanguages = []Language{
	{Code: "ar", Name: "Arabic"},
	{Code: "bn", Name: "Bengali"},
	{Code: "bg", Name: "Bulgarian"},
	{Code: "ca", Name: "Catalan"},
	{Code: "zh-CN", Name: "Chinese (Simplified)"},
	{Code: "zh-TW", Name: "Chinese (Traditional)"},
	{Code: "hr", Name: "Croatian"},
	{Code: "cs", Name: "Czech"},
	{Code: "da", Name: "Danish"},
	{Code: "nl", Name: "Dutch"},
	{Code: "en", Name: "English"},
	{Code: "fi", Name: "Finnish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "el", Name: "Greek"},
	{Code: "he", Name: "Hebrew"},
	{Code: "hi", Name: "Hindi"},
	{Code: "hu", Name: "Hungarian"},
	{Code: "id", Name: "Indonesian"},
	{Code: "it", Name: "Italian"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "ms", Name: "Malay"},
	{Code: "no", Name: "Norwegian"},
	{Code: "pl", Name: "Polish"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ro", Name: "Romanian"},
	{Code: "ru", Name: "Russian"},
	{Code: "sk", Name: "Slovak"},
	{Code: "es", Name: "Spanish"},
	{Code: "sv", Name: "Swedish"},
	{Code: "ta", Name: "Tamil"},
	{Code: "te", Name: "Telugu"},
	{Code: "th", Name: "Thai"},
	{Code: "tr", Name: "Turkish"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "ur", Name: "Urdu"},
	{Code: "vi", Name: "Vietnamese"},
}

// SupportedPlatforms lists the platforms the URL resolver recognizes.
// Only YouTube has a working download path today; the rest resolve
// metadata and captions opportunistically.
var SupportedPlatforms = []Platform{
	{ID: "youtube", Name: "YouTube"},
	{ID: "tiktok", Name: "TikTok"},
	{ID: "instagram", Name: "Instagram"},
	{ID: "facebook", Name: "Facebook"},
	{ID: "twitter", Name: "Twitter/X"},
	{ID: "vimeo", Name: "Vimeo"},
	{ID: "dailymotion", Name: "Dailymotion"},
	{ID: "twitch", Name: "Twitch"},
}
