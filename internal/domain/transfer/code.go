package transfer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phystech-portal/transfer-hub/internal/domain/shared"
	"github.com/phystech-portal/transfer-hub/pkg/timeutil"
)

// Код заявки: DDMMYYYY-NNNN, где NNNN - четырёхзначный порядковый номер
// в пределах московского календарного дня, начиная с 0001.
// Присваивание выполняется в той же транзакции, что и вставка заявки,
// под сериализующей блокировкой дневного префикса.

// codeSeqDigits - ширина порядкового номера в коде.
const codeSeqDigits = 4

// CodePrefix возвращает дневной префикс кода для момента времени t.
func CodePrefix(t time.Time) string {
	return timeutil.DayPrefix(t)
}

// FormatCode собирает код из дневного префикса и порядкового номера.
func FormatCode(prefix string, seq int) string {
	return fmt.Sprintf("%s-%0*d", prefix, codeSeqDigits, seq)
}

// ParseCodeSeq извлекает порядковый номер из кода.
func ParseCodeSeq(code string) (int, error) {
	idx := strings.LastIndex(code, "-")
	if idx < 0 || idx == len(code)-1 {
		return 0, shared.NewDomainError("transfer", "ParseCode", shared.ErrInvalidFormat,
			fmt.Sprintf("code %q has no sequence suffix", code))
	}
	seq, err := strconv.Atoi(code[idx+1:])
	if err != nil {
		return 0, shared.WrapError("transfer", "ParseCode", shared.ErrInvalidFormat,
			fmt.Sprintf("code %q has a malformed sequence suffix", code), err)
	}
	return seq, nil
}

// NextCode вычисляет следующий код для момента now, исходя из
// лексикографически наибольшего уже существующего кода с тем же дневным
// префиксом. lastCode - пустая строка, если за день заявок ещё не было.
func NextCode(lastCode string, now time.Time) (string, error) {
	prefix := CodePrefix(now)
	if lastCode == "" {
		return FormatCode(prefix, 1), nil
	}
	seq, err := ParseCodeSeq(lastCode)
	if err != nil {
		return "", err
	}
	return FormatCode(prefix, seq+1), nil
}
