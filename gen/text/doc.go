// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 text 提供营销脚本生成服务，适配 OpenAI chat completions（主）与
Gemini generateContent（备）两个后端。

模型被约束输出 hook/problem/solution/cta 四段式 JSON；缺段或非 JSON 回复
按处理错误对待，与网络错误走同一重试/降级通道。主备双双耗尽时返回
围绕原始提示词填充的占位脚本，四段保证非空，调用方永远拿到可用脚本。
*/
package text
