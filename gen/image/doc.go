// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 image 提供关键帧图像生成服务，适配 Gemini（主，支持参考图条件）与
OpenAI 图像接口（备）两个后端。

每次 Generate 调用按实时凭据重新解析后端链，经弹性执行器重试；主备
双双耗尽时写入 1×1 占位 PNG 并在结果上携带触发错误，调用方永远能在
目标路径拿到一个有效文件。下载与编码结果先写临时文件再原子改名，
不会留下截断产物。
*/
package image
