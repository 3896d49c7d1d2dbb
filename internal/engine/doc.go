// Package engine реализует вызов OCR-движка.
//
// Движок — внешний процесс на Python (EasyOCR). Поддерживаются две стратегии:
//
//   - subprocess — на каждое изображение запускается easyocr_bridge.py,
//     результат читается из stdout как JSON-массив регионов
//   - server — изображение отправляется POST-запросом на долгоживущий
//     easyocr_server.py (модель загружена один раз)
//
// Обе стратегии реализуют интерфейс Client и возвращают одинаковую
// последовательность domain.Region. При detail=0 регионы нормализуются:
// только текст, пустой bbox, confidence 0.
//
// Ошибки:
//   - ErrUnavailable — скрипт не найден, интерпретатор не запускается, сервер недоступен
//   - ErrExecution — движок завершился с ошибкой (см. ExecutionError)
//   - ErrProtocol — ответ движка не удалось разобрать
package engine
