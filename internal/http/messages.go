package httpapi

import (
	"net/http"

	"github.com/abdoelngaar-maker/housing-management/internal/domain"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// 消息 key
const (
	msgNotFound           = "not_found"
	msgCapacityExceeded   = "capacity_exceeded"
	msgPopulationMismatch = "population_mismatch"
	msgMissingField       = "missing_field"
	msgDuplicateCode      = "duplicate_code"
	msgConflict           = "conflict"
	msgNotAssigned        = "not_assigned"
	msgInvalidValue       = "invalid_value"
	msgInvalidFile        = "invalid_file"
	msgUnavailable        = "unavailable"
	msgInternal           = "internal"
	msgUnauthorized       = "unauthorized"
	msgTokenExpired       = "token_expired"
	msgForbidden          = "forbidden"
	msgRateLimited        = "rate_limited"
)

var supportedLanguages = []language.Tag{language.Arabic, language.English}

var languageMatcher = language.NewMatcher(supportedLanguages)

var messages = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.Arabic))
	set := func(tag language.Tag, entries map[string]string) {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	set(language.Arabic, map[string]string{
		msgNotFound:           "%s غير موجود",
		msgCapacityExceeded:   "السعة غير كافية: المتاح %d سرير والمطلوب %d",
		msgPopulationMismatch: "نوع الوحدة غير مناسب، يجب أن تكون %s",
		msgMissingField:       "الحقل %s مطلوب",
		msgDuplicateCode:      "الكود مستخدم بالفعل (%s)",
		msgConflict:           "تعارض: %s",
		msgNotAssigned:        "الساكن غير مسكن في أي وحدة",
		msgInvalidValue:       "قيمة غير صالحة في الحقل %s: %s",
		msgInvalidFile:        "ملف غير صالح: %s",
		msgUnavailable:        "الخدمة غير متاحة حاليا",
		msgInternal:           "حدث خطأ غير متوقع",
		msgUnauthorized:       "يجب تسجيل الدخول",
		msgTokenExpired:       "انتهت صلاحية الجلسة",
		msgForbidden:          "غير مسموح بهذه العملية",
		msgRateLimited:        "عدد الطلبات كبير، حاول لاحقا",

		"entity.unit":         "الوحدة",
		"entity.resident":     "الساكن",
		"entity.sector":       "القطاع",
		"entity.user":         "المستخدم",
		"entity.notification": "الإشعار",
		"entity.import log":   "سجل الاستيراد",
		"unit_type.apartment": "شقة",
		"unit_type.chalet":    "شاليه",
	})
	set(language.English, map[string]string{
		msgNotFound:           "%s not found",
		msgCapacityExceeded:   "Not enough beds: %d available, %d requested",
		msgPopulationMismatch: "Wrong unit type, expected %s",
		msgMissingField:       "%s is required",
		msgDuplicateCode:      "Code already exists (%s)",
		msgConflict:           "Conflict: %s",
		msgNotAssigned:        "Resident is not placed in a unit",
		msgInvalidValue:       "Invalid value for %s: %s",
		msgInvalidFile:        "Invalid file: %s",
		msgUnavailable:        "Service is not available",
		msgInternal:           "Unexpected error",
		msgUnauthorized:       "Authentication required",
		msgTokenExpired:       "Session expired",
		msgForbidden:          "Operation not allowed",
		msgRateLimited:        "Too many requests, try again later",

		"entity.unit":         "Unit",
		"entity.resident":     "Resident",
		"entity.sector":       "Sector",
		"entity.user":         "User",
		"entity.notification": "Notification",
		"entity.import log":   "Import log",
		"unit_type.apartment": "apartment",
		"unit_type.chalet":    "chalet",
	})
	return b
}

// requestLanguage picks Arabic or English from Accept-Language. Arabic is the default.
func requestLanguage(r *http.Request) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	_, idx, _ := languageMatcher.Match(tags...)
	return supportedLanguages[idx]
}

func localize(tag language.Tag, key string, args ...any) string {
	return message.NewPrinter(tag, message.Catalog(messages)).Sprintf(key, args...)
}

func localizeError(tag language.Tag, de *domain.Error) string {
	p := message.NewPrinter(tag, message.Catalog(messages))
	switch de.Kind {
	case domain.KindNotFound:
		return p.Sprintf(msgNotFound, p.Sprintf("entity."+de.Entity))
	case domain.KindCapacityExceeded:
		return p.Sprintf(msgCapacityExceeded, de.Available, de.Requested)
	case domain.KindPopulationMismatch:
		return p.Sprintf(msgPopulationMismatch, p.Sprintf("unit_type."+string(de.ExpectedUnitType)))
	case domain.KindMissingField:
		return p.Sprintf(msgMissingField, de.Field)
	case domain.KindDuplicateCode:
		return p.Sprintf(msgDuplicateCode, p.Sprintf("entity."+de.Entity))
	case domain.KindConflict:
		return p.Sprintf(msgConflict, de.Reason)
	case domain.KindNotAssigned:
		return p.Sprintf(msgNotAssigned)
	case domain.KindInvalidValue:
		return p.Sprintf(msgInvalidValue, de.Field, de.Value)
	}
	return de.Error()
}
